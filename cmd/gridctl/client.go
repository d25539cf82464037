package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

// controlAddr resolves the control surface base URL from the global flag.
func controlAddr(cmd *cobra.Command) string {
	addr, _ := cmd.Flags().GetString("addr")
	return addr
}

// callControl runs one request against the control surface and decodes the
// JSON reply into `out` (which may be nil for empty replies).
func callControl(method, url string, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var ctrlErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&ctrlErr) == nil && ctrlErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, ctrlErr.Error)
		}
		return fmt.Errorf("control surface replied %s", resp.Status)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
