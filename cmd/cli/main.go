package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Small interactive helper to register a site with a running API.
func main() {
	api := os.Getenv("SITEWATCH_API")
	if api == "" {
		api = "http://127.0.0.1:8080"
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Enter a site URL to monitor (e.g., https://example.com): ")
	raw, _ := reader.ReadString('\n')
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		fmt.Println("Invalid URL.")
		return
	}

	fmt.Print("Display name (optional): ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)

	fmt.Print("Check interval in seconds (default 300): ")
	rawInterval, _ := reader.ReadString('\n')
	interval, _ := strconv.Atoi(strings.TrimSpace(rawInterval))

	body, _ := json.Marshal(map[string]any{
		"url":                    raw,
		"name":                   name,
		"check_interval_seconds": interval,
	})

	req, err := http.NewRequest(http.MethodPost, api+"/api/sites", bytes.NewReader(body))
	if err != nil {
		fmt.Println("Request error:", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if key := os.Getenv("SITEWATCH_API_KEY"); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("Request failed:", err)
		return
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s\n%s\n", resp.Status, out)
}
