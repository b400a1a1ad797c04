package kindle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kindlestats/lib/activity"
	"kindlestats/lib/timezone"

	"github.com/stretchr/testify/require"
)

type fakeCreds struct{}

func (fakeCreds) Username(ctx context.Context) (string, error) { return "parent@example.com", nil }
func (fakeCreds) Password(ctx context.Context) (string, error) { return "hunter2", nil }
func (fakeCreds) OTP(ctx context.Context) (string, error)      { return "", nil }

const emailForm = `<html><body>
<form name="signIn" action="/ap/signin" method="post">
	<input type="hidden" name="appActionToken" value="token-1" />
	<input type="email" name="email" />
	<input type="submit" id="continue" />
</form>
</body></html>`

const passwordForm = `<html><body>
<form name="signIn" action="/ap/signin" method="post">
	<input type="hidden" name="appActionToken" value="token-2" />
	<input type="hidden" name="email" value="%s" />
	<input type="password" name="password" />
	<input type="submit" id="signInSubmit" />
</form>
</body></html>`

func newDashboardServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	signedIn := func(r *http.Request) bool {
		cookie, err := r.Cookie("session")
		return err == nil && cookie.Value == "ok"
	}

	mux.HandleFunc("GET /parentdashboard/activities/household-summary", func(w http.ResponseWriter, r *http.Request) {
		if !signedIn(r) {
			http.Redirect(w, r, "/ap/signin", http.StatusFound)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "ft-panda-csrf-token", Value: "csrf-123", Path: "/"})
		fmt.Fprint(w, "<html><body>Parent Dashboard</body></html>")
	})

	mux.HandleFunc("GET /ap/signin", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, emailForm)
	})

	mux.HandleFunc("POST /ap/signin", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.NotEmpty(t, r.Form.Get("appActionToken"), "hidden form state must be carried along")

		if r.Form.Get("password") == "" {
			require.Equal(t, "parent@example.com", r.Form.Get("email"))
			fmt.Fprintf(w, passwordForm, r.Form.Get("email"))
			return
		}
		if r.Form.Get("password") != "hunter2" {
			fmt.Fprint(w, emailForm)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok", Path: "/"})
		http.Redirect(w, r, "/parentdashboard/activities/household-summary", http.StatusFound)
	})

	mux.HandleFunc("GET /parentdashboard/ajax/get-household", func(w http.ResponseWriter, r *http.Request) {
		if !signedIn(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"members": [
			{"directedId": "amzn1.child.1", "role": "CHILD", "firstName": "Maya"},
			{"directedId": "amzn1.child.2", "role": "CHILD"},
			{"directedId": "amzn1.adult.1", "role": "ADULT", "firstName": "Sam"}
		]}`)
	})

	mux.HandleFunc("POST /parentdashboard/ajax/get-weekly-activities-v2", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-amzn-csrf") != "csrf-123" {
			http.Error(w, "missing csrf token", http.StatusForbidden)
			return
		}
		var query struct {
			ChildDirectedId     string `json:"childDirectedId"`
			StartTime           int64  `json:"startTime"`
			EndTime             int64  `json:"endTime"`
			AggregationInterval int64  `json:"aggregationInterval"`
			TimeZone            string `json:"timeZone"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&query))
		require.Equal(t, int64(86400), query.AggregationInterval)
		require.Equal(t, "America/Los_Angeles", query.TimeZone)

		if query.ChildDirectedId == "amzn1.child.2" {
			// an upstream hiccup serving an html error page
			fmt.Fprint(w, "<html>Something went wrong</html>")
			return
		}
		fmt.Fprintf(w, `{"activityV2Data": [{"intervals": [
			{"startTime": %d, "aggregatedDuration": 600, "aggregatedActivityResults": [
				{"activityDuration": 600, "activityCount": 1, "attributes": {"TITLE": "Matilda"}}
			]}
		]}]}`, query.StartTime)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	client, err := NewClient(ClientOptions{
		BaseUrl:      server.URL,
		Credentials:  fakeCreds{},
		LoginTimeout: time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestLoginFlow(t *testing.T) {
	server := newDashboardServer(t)
	client := newTestClient(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	err := client.Login(ctx)
	require.NoError(t, err)
	require.Equal(t, "csrf-123", client.csrf)

	// second login reuses the session without walking the forms
	err = client.Login(ctx)
	require.NoError(t, err)
}

func TestChildren(t *testing.T) {
	server := newDashboardServer(t)
	client := newTestClient(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	require.NoError(t, client.Login(ctx))

	children, err := client.Children(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"amzn1.child.1": "Maya",
		"amzn1.child.2": "Unknown",
	}, children)

	captured := client.Captured()
	require.Len(t, captured, 1)
	require.Contains(t, captured[0].URL, "get-household")
	require.Equal(t, http.StatusOK, captured[0].Status)
}

func TestFetchWindow(t *testing.T) {
	server := newDashboardServer(t)
	client := newTestClient(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	require.NoError(t, client.Login(ctx))

	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, timezone.Location)
	end := start.Add(7 * 24 * time.Hour)

	raw, err := client.FetchWindow(ctx, "amzn1.child.1", start, end)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, raw.Status)
	require.Equal(t, &activity.WindowQuery{
		ChildDirectedId: "amzn1.child.1",
		StartTime:       start.Unix(),
		EndTime:         end.Unix(),
	}, raw.Query)

	records := activity.ExtractDailyRecords([]activity.RawResponse{raw}, timezone.Location)
	require.Len(t, records, 1)
	require.Equal(t, "2025-06-01", records[0].Date)
	require.Equal(t, "Matilda", records[0].Books[0].Title)
}

func TestFetchWindowWrapsNonJsonBodies(t *testing.T) {
	server := newDashboardServer(t)
	client := newTestClient(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	require.NoError(t, client.Login(ctx))

	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, timezone.Location)
	raw, err := client.FetchWindow(ctx, "amzn1.child.2", start, start.Add(24*time.Hour))
	require.NoError(t, err)

	// the archive must stay marshalable even when upstream serves html
	require.True(t, json.Valid(raw.Body))
	require.Contains(t, string(raw.Body), "_raw_text")
}

func TestFetchWindowRequiresLogin(t *testing.T) {
	server := newDashboardServer(t)
	client := newTestClient(t, server)

	_, err := client.FetchWindow(context.Background(), "amzn1.child.1", time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)
}
