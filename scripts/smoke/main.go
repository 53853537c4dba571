// Command smoke exercises a running API instance end to end: it registers a
// student, marks a day of attendance, fetches the progress report and runs a
// backup round trip, reporting status and timing per step. Exits non-zero on
// the first failed critical step.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type step struct {
	Name     string
	Method   string
	Path     string
	Body     string
	Want     int
	Critical bool
}

type result struct {
	Step     step
	Status   int
	Duration time.Duration
	Error    error
	Body     []byte
}

func main() {
	var (
		base    string
		timeout time.Duration
	)
	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	client := &http.Client{Timeout: timeout}
	today := time.Now().UTC().Format("2006-01-02")

	setup := []step{
		{Name: "health", Method: http.MethodGet, Path: "/health", Want: http.StatusOK, Critical: true},
		{Name: "register student", Method: http.MethodPost, Path: "/api/v1/students",
			Body: `{"name":"Smoke Santri","gender":"L","position_type":"iqro","iqro_number":1,"iqro_page":1}`,
			Want: http.StatusCreated, Critical: true},
	}

	var failures int
	var code string
	for _, s := range setup {
		res := run(client, base, s)
		report(res)
		if res.Error != nil || res.Status != s.Want {
			failures++
			if s.Critical {
				os.Exit(1)
			}
			continue
		}
		if s.Name == "register student" {
			code = extractCode(res.Body)
		}
	}
	if code == "" {
		fmt.Println("no student code returned, aborting")
		os.Exit(1)
	}

	flow := []step{
		{Name: "mark attendance", Method: http.MethodPost, Path: "/api/v1/attendance",
			Body: fmt.Sprintf(`{"student_code":%q,"date":%q,"is_present":true,"iqro_number":1,"iqro_page":2,"is_passed":true}`, code, today),
			Want: http.StatusOK, Critical: true},
		{Name: "progress report", Method: http.MethodGet,
			Path: "/api/v1/students/" + code + "/report", Want: http.StatusOK, Critical: true},
		{Name: "backup export", Method: http.MethodGet, Path: "/api/v1/backup/export",
			Want: http.StatusOK, Critical: true},
		{Name: "delete student", Method: http.MethodDelete,
			Path: "/api/v1/students/" + code, Want: http.StatusNoContent},
	}

	var backup []byte
	for _, s := range flow {
		res := run(client, base, s)
		report(res)
		if res.Error != nil || res.Status != s.Want {
			failures++
			if s.Critical {
				os.Exit(1)
			}
			continue
		}
		if s.Name == "backup export" {
			backup = res.Body
		}
	}

	// Re-importing the exported document restores what the delete removed.
	if len(backup) > 0 {
		res := run(client, base, step{Name: "backup import", Method: http.MethodPost,
			Path: "/api/v1/backup/import", Body: string(backup), Want: http.StatusOK, Critical: true})
		report(res)
		if res.Error != nil || res.Status != http.StatusOK {
			os.Exit(1)
		}
		res = run(client, base, step{Name: "cleanup", Method: http.MethodDelete,
			Path: "/api/v1/students/" + code, Want: http.StatusNoContent})
		report(res)
	}

	fmt.Printf("Failures: %d\n", failures)
	if failures > 0 {
		os.Exit(1)
	}
}

func run(client *http.Client, base string, s step) result {
	res := result{Step: s}
	var body io.Reader
	if s.Body != "" {
		body = bytes.NewReader([]byte(s.Body))
	}
	req, err := http.NewRequest(s.Method, strings.TrimRight(base, "/")+s.Path, body)
	if err != nil {
		res.Error = err
		return res
	}
	if s.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close() //nolint:errcheck
	res.Status = resp.StatusCode
	res.Body, res.Error = io.ReadAll(resp.Body)
	return res
}

func extractCode(body []byte) string {
	var envelope struct {
		Data struct {
			StudentCode string `json:"student_code"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Data.StudentCode
}

func report(res result) {
	status := "OK"
	if res.Error != nil {
		status = "ERROR"
	} else if res.Status != res.Step.Want {
		status = "FAIL"
	}
	fmt.Printf("[%s] %s %s %s\n", status, res.Step.Method, res.Step.Path, res.Duration)
	if res.Error != nil {
		fmt.Printf("  Error: %v\n", res.Error)
	} else if res.Status != res.Step.Want {
		fmt.Printf("  Status: %d (want %d)\n", res.Status, res.Step.Want)
	}
}
