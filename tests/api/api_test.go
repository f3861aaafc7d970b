//go:build api

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseURL = func() string {
	if v := os.Getenv("RESERVATION_SERVICE_URL"); v != "" {
		return v
	}
	return "http://localhost:8084"
}()

// TestAPI_FullFlow drives a reservation end-to-end against a running
// instance: create, conflict, confirm, check-in, check-out.
func TestAPI_FullFlow(t *testing.T) {
	waitForService(t)

	checkIn := time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	checkOut := time.Now().AddDate(0, 0, 34).Format("2006-01-02")
	riadID := fmt.Sprintf("riad-api-%d", time.Now().UnixNano())

	var reservationID float64
	var reservationNumber string

	t.Run("Step1_CreateReservation", func(t *testing.T) {
		resp := post(t, baseURL+"/api/v1/reservations", map[string]any{
			"user_id":          "user-api-1",
			"riad_id":          riadID,
			"check_in_date":    checkIn,
			"check_out_date":   checkOut,
			"number_of_guests": 2,
			"total_price":      1500.00,
			"guest_name":       "Amina Benali",
			"guest_email":      "amina@example.com",
		})
		require.Equal(t, 201, resp.StatusCode)

		var body map[string]any
		decodeJSON(t, resp, &body)
		reservationID = body["id"].(float64)
		reservationNumber = body["reservation_number"].(string)

		assert.Equal(t, "PENDING", body["status"])
		assert.Regexp(t, `^RES-[A-Z0-9]{8}$`, reservationNumber)
	})

	t.Run("Step2_OverlapRejected", func(t *testing.T) {
		resp := post(t, baseURL+"/api/v1/reservations", map[string]any{
			"user_id":          "user-api-2",
			"riad_id":          riadID,
			"check_in_date":    time.Now().AddDate(0, 0, 32).Format("2006-01-02"),
			"check_out_date":   time.Now().AddDate(0, 0, 36).Format("2006-01-02"),
			"number_of_guests": 2,
			"total_price":      900.00,
			"guest_name":       "Youssef El Fassi",
			"guest_email":      "youssef@example.com",
		})
		assert.Equal(t, 409, resp.StatusCode)
	})

	t.Run("Step3_CheckAvailability", func(t *testing.T) {
		resp := post(t, baseURL+"/api/v1/reservations/check-availability", map[string]any{
			"riad_id":        riadID,
			"check_in_date":  checkIn,
			"check_out_date": checkOut,
		})
		require.Equal(t, 200, resp.StatusCode)

		var body map[string]any
		decodeJSON(t, resp, &body)
		assert.Equal(t, false, body["available"])
	})

	t.Run("Step4_GetByNumber", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/api/v1/reservations/number/" + reservationNumber)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Step5_ConfirmCheckInCheckOut", func(t *testing.T) {
		for _, step := range []struct {
			action string
			status string
		}{
			{"confirm", "CONFIRMED"},
			{"check-in", "CHECKED_IN"},
			{"check-out", "CHECKED_OUT"},
		} {
			resp := post(t, fmt.Sprintf("%s/api/v1/reservations/%.0f/%s", baseURL, reservationID, step.action), nil)
			require.Equal(t, 200, resp.StatusCode, "action %s", step.action)

			var body map[string]any
			decodeJSON(t, resp, &body)
			assert.Equal(t, step.status, body["status"])
		}
	})

	t.Run("Step6_DoubleConfirmRejected", func(t *testing.T) {
		resp := post(t, fmt.Sprintf("%s/api/v1/reservations/%.0f/confirm", baseURL, reservationID), nil)
		assert.Equal(t, 422, resp.StatusCode)
	})
}

func waitForService(t *testing.T) {
	t.Helper()
	for i := 0; i < 30; i++ {
		resp, err := http.Get(baseURL + "/health")
		if err == nil && resp.StatusCode == 200 {
			resp.Body.Close()
			return
		}
		time.Sleep(time.Second)
	}
	t.Fatal("reservation service did not become ready")
}

func post(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}
	resp, err := http.Post(url, "application/json", body)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
