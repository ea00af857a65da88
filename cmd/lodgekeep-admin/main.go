// ABOUTME: Admin CLI for lodgekeep lease operations
// ABOUTME: Talks to the REST admin surface with a session token for auth

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/go-resty/resty/v2"
)

const banner = `
 _           _            _
| | ___   __| | __ _  ___| | _____  ___ _ __
| |/ _ \ / _' |/ _' |/ _ \ |/ / _ \/ _ \ '_ \
| | (_) | (_| | (_| |  __/   <  __/  __/ |_) |  admin
|_|\___/ \__,_|\__, |\___|_|\_\___|\___| .__/
               |___/                   |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	baseURL := os.Getenv("LODGEKEEP_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	token := os.Getenv("LODGEKEEP_TOKEN")

	cmd := os.Args[1]
	args := os.Args[2:]

	c := newClient(baseURL, token)

	var err error
	switch cmd {
	case "health":
		err = cmdHealth(c)
	case "stats":
		err = cmdStats(c, args)
	case "trash":
		err = cmdTrash(c, args)
	case "show":
		err = cmdShow(c, args)
	case "restore":
		err = cmdRestore(c, args)
	case "purge":
		err = cmdPurge(c, args)
	case "audit":
		err = cmdAudit(c, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: lodgekeep-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  health                  Check server health")
	fmt.Println("  stats [--user ID]       Show lease counts by status")
	fmt.Println("  trash [--user ID]       List soft-deleted leases")
	fmt.Println("  show <lease-id>         Show a lease, including deleted ones")
	fmt.Println("  restore <lease-id>      Restore a soft-deleted lease")
	fmt.Println("  purge <lease-id>        Permanently delete a trashed lease")
	fmt.Println("  audit [--target ID]     Show the administrative audit trail")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  LODGEKEEP_URL            Server base URL (default: http://localhost:8080)")
	fmt.Println("  LODGEKEEP_TOKEN          Session token with an admin role (required)")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  export LODGEKEEP_TOKEN=\"$(lodgekeep token --user ops-1 --role admin)\"")
	fmt.Println("  lodgekeep-admin stats")
	fmt.Println("  lodgekeep-admin trash --user tenant-42")
	fmt.Println("  lodgekeep-admin restore 6f1c9c0e-...")
	fmt.Println()
}

// envelope mirrors the server's fixed response shape.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

func newClient(baseURL, token string) *resty.Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)
	if token != "" {
		c.SetAuthToken(token)
	}
	return c
}

// call performs a request and unwraps the envelope, turning API failures
// into errors carrying the server's message.
func call(c *resty.Client, method, path string, query map[string]string) (*envelope, error) {
	req := c.R()
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("bad response (status %d): %w", resp.StatusCode(), err)
	}
	if !env.Success {
		if env.Kind != "" {
			return nil, fmt.Errorf("%s (%s)", env.Message, env.Kind)
		}
		return nil, fmt.Errorf("%s", env.Message)
	}
	return &env, nil
}

func cmdHealth(c *resty.Client) error {
	_, err := call(c, "GET", "/health", nil)
	if err != nil {
		return err
	}
	color.Green("healthy")
	return nil
}

func cmdStats(c *resty.Client, args []string) error {
	query := map[string]string{}
	if user := flagValue(args, "--user"); user != "" {
		query["userId"] = user
	}

	env, err := call(c, "GET", "/api/admin/stats", query)
	if err != nil {
		return err
	}

	var stats struct {
		ByStatus map[string]int `json:"byStatus"`
		Total    int            `json:"total"`
		Open     int            `json:"open"`
		Closed   int            `json:"closed"`
	}
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		return fmt.Errorf("decoding stats: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tCOUNT")
	for status, count := range stats.ByStatus {
		fmt.Fprintf(w, "%s\t%d\n", status, count)
	}
	fmt.Fprintln(w, "\t")
	fmt.Fprintf(w, "open\t%d\n", stats.Open)
	fmt.Fprintf(w, "closed\t%d\n", stats.Closed)
	fmt.Fprintf(w, "total\t%d\n", stats.Total)
	return w.Flush()
}

type leaseSummary struct {
	ID         string `json:"id"`
	PropertyID string `json:"propertyId"`
	TenantID   string `json:"tenantId"`
	LandlordID string `json:"landlordId"`
	Status     string `json:"status"`
	UpdatedAt  string `json:"updatedAt"`
}

func cmdTrash(c *resty.Client, args []string) error {
	query := map[string]string{}
	if user := flagValue(args, "--user"); user != "" {
		query["userId"] = user
	}

	env, err := call(c, "GET", "/api/admin/trash", query)
	if err != nil {
		return err
	}

	var leases []leaseSummary
	if err := json.Unmarshal(env.Data, &leases); err != nil {
		return fmt.Errorf("decoding trash listing: %w", err)
	}

	if len(leases) == 0 {
		fmt.Println("Trash is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROPERTY\tTENANT\tLANDLORD\tSTATUS\tUPDATED")
	for _, l := range leases {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.PropertyID, l.TenantID, l.LandlordID, l.Status, l.UpdatedAt)
	}
	return w.Flush()
}

func cmdShow(c *resty.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: lodgekeep-admin show <lease-id>")
	}

	env, err := call(c, "GET", "/api/admin/leases/"+args[0], nil)
	if err != nil {
		return err
	}

	var pretty map[string]any
	if err := json.Unmarshal(env.Data, &pretty); err != nil {
		return fmt.Errorf("decoding lease: %w", err)
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func cmdRestore(c *resty.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: lodgekeep-admin restore <lease-id>")
	}

	_, err := call(c, "POST", "/api/leases/"+args[0]+"/restore", nil)
	if err != nil {
		return err
	}
	color.Green("Restored %s", args[0])
	return nil
}

func cmdPurge(c *resty.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: lodgekeep-admin purge <lease-id>")
	}

	// Permanent deletion cannot be undone, so require explicit confirmation.
	if !hasFlag(args, "--yes") {
		fmt.Printf("Permanently delete lease %s? This cannot be undone. [yes/no]: ", args[0])
		var answer string
		fmt.Scanln(&answer)
		if strings.ToLower(answer) != "yes" && strings.ToLower(answer) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	_, err := call(c, "DELETE", "/api/admin/leases/"+args[0], nil)
	if err != nil {
		return err
	}
	color.Green("Purged %s", args[0])
	return nil
}

func cmdAudit(c *resty.Client, args []string) error {
	query := map[string]string{}
	if target := flagValue(args, "--target"); target != "" {
		query["targetId"] = target
	}
	if actor := flagValue(args, "--actor"); actor != "" {
		query["actorId"] = actor
	}
	if action := flagValue(args, "--action"); action != "" {
		query["action"] = action
	}

	env, err := call(c, "GET", "/api/admin/audit", query)
	if err != nil {
		return err
	}

	var entries []struct {
		ID        string `json:"id"`
		ActorID   string `json:"actorId"`
		Action    string `json:"action"`
		TargetID  string `json:"targetId"`
		Timestamp string `json:"timestamp"`
		Detail    string `json:"detail"`
	}
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		return fmt.Errorf("decoding audit trail: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No audit entries.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTOR\tACTION\tTARGET\tDETAIL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp, e.ActorID, e.Action, e.TargetID, e.Detail)
	}
	return w.Flush()
}

// flagValue scans args for "--name value" or "--name=value".
func flagValue(args []string, name string) string {
	for i, arg := range args {
		if arg == name && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(arg, name+"=") {
			return strings.TrimPrefix(arg, name+"=")
		}
	}
	return ""
}

func hasFlag(args []string, name string) bool {
	for _, arg := range args {
		if arg == name {
			return true
		}
	}
	return false
}
