package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// socketView mirrors socketcored's /sockets JSON shape.
type socketView struct {
	Descriptor int    `json:"descriptor"`
	Kind       string `json:"kind"`
	Local      string `json:"local"`
	Remote     string `json:"remote"`
}

// groupView mirrors socketcored's /groups JSON shape.
type groupView struct {
	Descriptor int      `json:"descriptor"`
	Groups     []string `json:"groups"`
}

// fetchJSON issues a GET against serverAddr+path and decodes the JSON
// response body into dst.
func fetchJSON(path string, dst any) error {
	resp, err := httpClient.Get(serverAddr + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}

// formatSockets renders the socket list in the requested format.
func formatSockets(sockets []socketView, format string) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(sockets, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal sockets to JSON: %w", err)
		}
		return string(data), nil
	case formatTable:
		var buf strings.Builder
		w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DESCRIPTOR\tKIND\tLOCAL\tREMOTE")
		for _, s := range sockets {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Descriptor, s.Kind, s.Local, s.Remote)
		}
		if err := w.Flush(); err != nil {
			return "", fmt.Errorf("flush tabwriter: %w", err)
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// formatGroups renders the multicast membership list in the requested format.
func formatGroups(groups []groupView, format string) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(groups, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal groups to JSON: %w", err)
		}
		return string(data), nil
	case formatTable:
		var buf strings.Builder
		w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DESCRIPTOR\tGROUPS")
		for _, g := range groups {
			fmt.Fprintf(w, "%d\t%s\n", g.Descriptor, strings.Join(g.Groups, ","))
		}
		if err := w.Flush(); err != nil {
			return "", fmt.Errorf("flush tabwriter: %w", err)
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// formatStats renders the per-kind open-socket counts in the requested format.
func formatStats(counts map[string]int, format string) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(counts, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal stats to JSON: %w", err)
		}
		return string(data), nil
	case formatTable:
		var buf strings.Builder
		w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tOPEN")
		for kind, n := range counts {
			fmt.Fprintf(w, "%s\t%d\n", kind, n)
		}
		if err := w.Flush(); err != nil {
			return "", fmt.Errorf("flush tabwriter: %w", err)
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}
