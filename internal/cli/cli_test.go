package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const sampleTicket = `{
  "id": "T1",
  "ticket_number": "TCK-20261014-ABC123",
  "priority": "high",
  "status": "open",
  "created_at": "2026-10-14T09:00:00Z",
  "due_date": "2026-10-15T09:00:00Z",
  "customer_name": "Budi Santoso",
  "customer_email": "budi@example.com",
  "subject": "Printer offline"
}`

func writeTicket(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ticket.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSLADueDate(t *testing.T) {
	out, err := run(t, SLACmd(), "due-date", "--priority", "high", "--at", "2026-10-15T09:00:00Z")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.TrimSpace(out) != "2026-10-16T16:00:00+07:00" {
		t.Errorf("output = %q", out)
	}

	if _, err := run(t, SLACmd(), "due-date", "--priority", "asap"); err == nil {
		t.Error("unknown priority should fail")
	}
}

func TestSLAClassify(t *testing.T) {
	path := writeTicket(t, sampleTicket)

	tests := []struct {
		at   string
		want []string
	}{
		{"2026-10-14T20:00:00Z", []string{"State:    normal"}},
		{"2026-10-15T10:00:00Z", []string{"State:    warning", "(overdue)"}},
		{"2026-10-16T10:00:00Z", []string{"State:    critical", "Progress: 100%"}},
	}
	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			out, err := run(t, SLACmd(), "classify", "--ticket", path, "--at", tt.at)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestTemplateRender(t *testing.T) {
	path := writeTicket(t, sampleTicket)

	out, err := run(t, TemplateCmd(), "render", "--ticket", path, "--at", "2026-10-14T10:00:00Z",
		"--subject", "Tiket {{ticketNumber}}", "--body", "Halo {{customerName}} {{unknownKey}}")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"Subject: Tiket TCK-20261014-ABC123", "Halo Budi Santoso {{unknownKey}}", "Unresolved: unknownKey"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, TemplateCmd(), "render", "--ticket", path, "--event", "status_change", "--new-status", "in_progress")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "[TCK-20261014-ABC123] Status tiket: Sedang Diproses") {
		t.Errorf("rules template not used:\n%s", out)
	}
}

func TestTemplateRender_BadInput(t *testing.T) {
	good := writeTicket(t, sampleTicket)
	badPriority := writeTicket(t, strings.Replace(sampleTicket, `"high"`, `"asap"`, 1))

	tests := []struct {
		name string
		args []string
	}{
		{"unknown event", []string{"render", "--ticket", good, "--event", "deleted"}},
		{"missing file", []string{"render", "--ticket", filepath.Join(t.TempDir(), "nope.json")}},
		{"bad priority", []string{"render", "--ticket", badPriority}},
		{"bad time", []string{"render", "--ticket", good, "--at", "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, TemplateCmd(), tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
