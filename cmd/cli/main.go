// Package main is the CLI entry point.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinkerloft/frontdesk/internal/model"
	"github.com/tinkerloft/frontdesk/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "frontdesk",
	Short: "Frontdesk CLI",
	Long:  "CLI for the frontdesk AI receptionist API",
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate a customer call",
	Long:  "Send one customer question through the receptionist and print the outcome",
	RunE:  runSimulate,
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending help requests",
	RunE:  runPending,
}

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List all help requests",
	RunE:  runRequests,
}

var respondCmd = &cobra.Command{
	Use:   "respond",
	Short: "Answer a pending help request",
	Long:  "Submit a supervisor answer; the request resolves and the answer is learned",
	RunE:  runRespond,
}

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Inspect and extend the knowledge base",
}

var knowledgeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all knowledge entries",
	RunE:  runKnowledgeList,
}

var knowledgeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a knowledge entry",
	RunE:  runKnowledgeAdd,
}

var knowledgeSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runKnowledgeSearch,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show service statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.PersistentFlags().String("server", defaultServer(), "Frontdesk server base URL")

	simulateCmd.Flags().String("question", "", "Customer question (required)")
	simulateCmd.Flags().String("customer-id", "cli", "Customer identifier")
	simulateCmd.Flags().String("phone", "", "Customer phone number")
	simulateCmd.Flags().String("name", "", "Customer name")
	simulateCmd.MarkFlagRequired("question")

	respondCmd.Flags().String("request-id", "", "Help request ID (required)")
	respondCmd.Flags().String("answer", "", "Supervisor answer (required)")
	respondCmd.Flags().String("supervisor-id", "cli", "Supervisor identifier")
	respondCmd.MarkFlagRequired("request-id")
	respondCmd.MarkFlagRequired("answer")

	knowledgeAddCmd.Flags().String("question", "", "Question text (required)")
	knowledgeAddCmd.Flags().String("answer", "", "Answer text (required)")
	knowledgeAddCmd.Flags().StringSlice("tag", nil, "Tag (can be repeated)")
	knowledgeAddCmd.MarkFlagRequired("question")
	knowledgeAddCmd.MarkFlagRequired("answer")

	knowledgeCmd.AddCommand(knowledgeListCmd)
	knowledgeCmd.AddCommand(knowledgeAddCmd)
	knowledgeCmd.AddCommand(knowledgeSearchCmd)

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(respondCmd)
	rootCmd.AddCommand(knowledgeCmd)
	rootCmd.AddCommand(statsCmd)
}

func defaultServer() string {
	if v := os.Getenv("FRONTDESK_URL"); v != "" {
		return v
	}
	return "http://localhost:8000"
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

// apiCall performs one JSON request against the server and decodes the
// response into out. Non-2xx responses surface the server's error message.
func apiCall(cmd *cobra.Command, method, path string, body, out any) error {
	base, _ := cmd.Flags().GetString("server")

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	question, _ := cmd.Flags().GetString("question")
	customerID, _ := cmd.Flags().GetString("customer-id")
	phone, _ := cmd.Flags().GetString("phone")
	name, _ := cmd.Flags().GetString("name")

	var resp model.AgentResponse
	err := apiCall(cmd, http.MethodPost, "/api/calls/simulate", map[string]string{
		"question":       question,
		"customer_id":    customerID,
		"customer_phone": phone,
		"customer_name":  name,
	}, &resp)
	if err != nil {
		return err
	}

	fmt.Printf("Response: %s\n", resp.Response)
	if resp.NeedsHelp {
		fmt.Printf("Escalated to supervisor (request %s)\n", deref(resp.HelpRequestID))
	} else if resp.KnowledgeUsed != nil {
		fmt.Printf("Answered from knowledge entry %s\n", *resp.KnowledgeUsed)
	}
	return nil
}

func runPending(cmd *cobra.Command, args []string) error {
	return printRequests(cmd, "/api/requests/pending")
}

func runRequests(cmd *cobra.Command, args []string) error {
	return printRequests(cmd, "/api/requests/all")
}

func printRequests(cmd *cobra.Command, path string) error {
	var out struct {
		Requests []model.HelpRequest `json:"requests"`
		Count    int                 `json:"count"`
	}
	if err := apiCall(cmd, http.MethodGet, path, nil, &out); err != nil {
		return err
	}

	if out.Count == 0 {
		fmt.Println("No help requests found")
		return nil
	}

	fmt.Printf("%-36s %-12s %-20s %s\n", "ID", "STATUS", "CREATED", "QUESTION")
	fmt.Println(strings.Repeat("-", 100))
	for _, req := range out.Requests {
		fmt.Printf("%-36s %-12s %-20s %s\n",
			req.ID, req.Status, req.CreatedAt.Format("2006-01-02 15:04:05"), req.Question)
	}
	return nil
}

func runRespond(cmd *cobra.Command, args []string) error {
	requestID, _ := cmd.Flags().GetString("request-id")
	answer, _ := cmd.Flags().GetString("answer")
	supervisorID, _ := cmd.Flags().GetString("supervisor-id")

	var updated model.HelpRequest
	err := apiCall(cmd, http.MethodPost, "/api/requests/respond", map[string]string{
		"request_id":        requestID,
		"supervisor_answer": answer,
		"supervisor_id":     supervisorID,
	}, &updated)
	if err != nil {
		return err
	}

	fmt.Printf("Resolved: %s\n", updated.ID)
	fmt.Printf("Question: %s\n", updated.Question)
	fmt.Printf("Answer: %s\n", deref(updated.SupervisorAnswer))
	return nil
}

func runKnowledgeList(cmd *cobra.Command, args []string) error {
	var out struct {
		Knowledge []model.KnowledgeEntry `json:"knowledge"`
		Count     int                    `json:"count"`
	}
	if err := apiCall(cmd, http.MethodGet, "/api/knowledge/all", nil, &out); err != nil {
		return err
	}

	if out.Count == 0 {
		fmt.Println("Knowledge base is empty")
		return nil
	}
	printKnowledge(out.Knowledge)
	return nil
}

func runKnowledgeAdd(cmd *cobra.Command, args []string) error {
	question, _ := cmd.Flags().GetString("question")
	answer, _ := cmd.Flags().GetString("answer")
	tags, _ := cmd.Flags().GetStringSlice("tag")

	var entry model.KnowledgeEntry
	err := apiCall(cmd, http.MethodPost, "/api/knowledge/add", map[string]any{
		"question": question,
		"answer":   answer,
		"source":   string(model.KnowledgeSourceManual),
		"tags":     tags,
	}, &entry)
	if err != nil {
		return err
	}

	fmt.Printf("Added knowledge entry: %s\n", entry.ID)
	return nil
}

func runKnowledgeSearch(cmd *cobra.Command, args []string) error {
	var out struct {
		Results []model.KnowledgeEntry `json:"results"`
		Count   int                    `json:"count"`
	}
	path := "/api/knowledge/search?query=" + url.QueryEscape(args[0])
	if err := apiCall(cmd, http.MethodGet, path, nil, &out); err != nil {
		return err
	}

	if out.Count == 0 {
		fmt.Println("No matches")
		return nil
	}
	printKnowledge(out.Results)
	return nil
}

func printKnowledge(entries []model.KnowledgeEntry) {
	fmt.Printf("%-36s %-10s %-6s %s\n", "ID", "SOURCE", "USED", "QUESTION")
	fmt.Println(strings.Repeat("-", 100))
	for _, e := range entries {
		fmt.Printf("%-36s %-10s %-6d %s\n", e.ID, e.Source, e.UsageCount, e.Question)
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	var stats server.Stats
	if err := apiCall(cmd, http.MethodGet, "/api/stats", nil, &stats); err != nil {
		return err
	}

	fmt.Printf("Total requests:      %d\n", stats.TotalRequests)
	fmt.Printf("Pending requests:    %d\n", stats.PendingRequests)
	fmt.Printf("Resolved requests:   %d\n", stats.ResolvedRequests)
	fmt.Printf("Unresolved requests: %d\n", stats.UnresolvedRequests)
	fmt.Printf("Knowledge entries:   %d\n", stats.KnowledgeBaseSize)
	fmt.Printf("Active calls:        %d\n", stats.ActiveCalls)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
