package testclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// uniqueCounter provides unique vampire names within a single run
var uniqueCounter uint64

// uniqueName appends a letter suffix (a, b, ..., z, aa, ...) to base.
func uniqueName(base string) string {
	n := atomic.AddUint64(&uniqueCounter, 1)
	suffix := ""
	for n > 0 {
		n--
		suffix = string(rune('a'+(n%26))) + suffix
		n /= 26
	}
	return base + " " + suffix
}

// Verbose controls whether detailed logging is shown during a run
var Verbose = false

// Result is the outcome of one scenario.
type Result struct {
	Name    string
	Passed  bool
	Message string
}

func logAction(scenario, action string) {
	if Verbose {
		fmt.Printf("  [%s] %s\n", scenario, action)
	}
}

func fail(name, format string, args ...any) Result {
	return Result{Name: name, Passed: false, Message: fmt.Sprintf(format, args...)}
}

// RunAll runs every scenario against the server at address.
func RunAll(address string) []Result {
	return []Result{
		ScenarioStatus(address),
		ScenarioUnknownVampire(address),
		ScenarioCharacterCreation(address),
		ScenarioResolveAndExecute(address),
		ScenarioPlayChannel(address),
	}
}

// setupSteps is a complete character creation.
var setupSteps = []map[string]any{
	{"mortals": []map[string]string{{"name": "Brother Anselm", "description": "Keeps the chapel"}}},
	{
		"skills":    []map[string]string{{"name": "Patience"}, {"name": "Latin"}, {"name": "Beekeeping"}},
		"resources": []map[string]any{{"name": "The Chapel", "is_stationary": true}, {"name": "A Silver Psalter"}, {"name": "Wool Cloak"}},
	},
	{"experiences": []string{"I was a nun at the abbey.", "I kept the bees.", "I copied the gospels by candlelight."}},
	{
		"immortal":       map[string]string{"name": "The Pilgrim"},
		"mark":           map[string]string{"description": "My shadow lags behind me"},
		"transformation": "The Pilgrim came at vespers and I did not wake.",
	},
}

func createPlayable(c *TestClient) (int64, error) {
	id, err := c.CreateVampire("Born to a miller in the hills.")
	if err != nil {
		return 0, err
	}
	for i, step := range setupSteps {
		var resp struct {
			SetupComplete bool `json:"setup_complete"`
		}
		status, err := c.Do("POST", fmt.Sprintf("/api/vampires/%d/setup/%d", id, i+1), step, &resp)
		if err != nil {
			return 0, err
		}
		if status != http.StatusOK {
			return 0, fmt.Errorf("setup step %d returned %d", i+1, status)
		}
		if i == len(setupSteps)-1 && !resp.SetupComplete {
			return 0, fmt.Errorf("setup incomplete after step %d", i+1)
		}
	}
	return id, nil
}

// ScenarioStatus checks the server answers at all.
func ScenarioStatus(address string) Result {
	const name = "Status"
	c := NewTestClient(uniqueName("Status"), address)

	var status struct {
		Prompts int `json:"prompts"`
	}
	code, err := c.Do("GET", "/api/status", nil, &status)
	if err != nil {
		return fail(name, "Request failed: %v", err)
	}
	if code != http.StatusOK {
		return fail(name, "Expected 200, got %d", code)
	}
	return Result{Name: name, Passed: true, Message: fmt.Sprintf("Server reports %d prompts", status.Prompts)}
}

// ScenarioUnknownVampire checks not-found handling.
func ScenarioUnknownVampire(address string) Result {
	const name = "Unknown Vampire"
	c := NewTestClient(uniqueName("Ghost"), address)

	var body struct {
		Error string `json:"error"`
	}
	code, err := c.Do("GET", "/api/vampires/999999999", nil, &body)
	if err != nil {
		return fail(name, "Request failed: %v", err)
	}
	if code != http.StatusNotFound || body.Error == "" {
		return fail(name, "Expected 404 with error body, got %d %q", code, body.Error)
	}
	return Result{Name: name, Passed: true, Message: "404 returned"}
}

// ScenarioCharacterCreation creates a vampire, completes setup and plays a turn.
func ScenarioCharacterCreation(address string) Result {
	const name = "Character Creation"
	c := NewTestClient(uniqueName("Sister"), address)

	logAction(name, "Creating vampire and running setup")
	id, err := createPlayable(c)
	if err != nil {
		return fail(name, "%v", err)
	}

	logAction(name, "Playing a turn")
	var turn struct {
		NextPromptNumber int    `json:"next_prompt_number"`
		NextEntry        string `json:"next_entry"`
	}
	code, err := c.Do("POST", fmt.Sprintf("/api/vampires/%d/turn", id),
		map[string]string{"response": "I hid in the bell tower."}, &turn)
	if err != nil {
		return fail(name, "Turn failed: %v", err)
	}
	if code != http.StatusOK || turn.NextPromptNumber < 1 {
		return fail(name, "Unexpected turn result %d: %+v", code, turn)
	}
	return Result{Name: name, Passed: true,
		Message: fmt.Sprintf("Moved to prompt %d%s", turn.NextPromptNumber, turn.NextEntry)}
}

// ScenarioResolveAndExecute resolves prompt 1a and kills a new mortal.
func ScenarioResolveAndExecute(address string) Result {
	const name = "Resolve and Execute"
	c := NewTestClient(uniqueName("Hunter"), address)

	id, err := c.CreateVampire("")
	if err != nil {
		return fail(name, "%v", err)
	}

	var resolved struct {
		Actions []struct {
			Type string `json:"type"`
		} `json:"actions"`
	}
	code, err := c.Do("POST", fmt.Sprintf("/api/vampires/%d/resolve", id),
		map[string]string{"prompt_id": "1a"}, &resolved)
	if err != nil || code != http.StatusOK {
		return fail(name, "Resolve failed: %d %v", code, err)
	}
	if len(resolved.Actions) == 0 {
		return fail(name, "Prompt 1a resolved to no actions")
	}

	logAction(name, "Executing "+resolved.Actions[0].Type)
	var executed struct {
		Log []string `json:"log"`
	}
	code, err = c.Do("POST", fmt.Sprintf("/api/vampires/%d/execute", id), map[string]any{
		"type":    "kill_mortal",
		"choices": map[string]any{"create_new": true},
	}, &executed)
	if err != nil || code != http.StatusOK {
		return fail(name, "Execute failed: %d %v", code, err)
	}
	if len(executed.Log) != 1 {
		return fail(name, "Expected one log line, got %v", executed.Log)
	}
	return Result{Name: name, Passed: true, Message: executed.Log[0]}
}

// ScenarioPlayChannel plays a turn over the WebSocket play channel.
func ScenarioPlayChannel(address string) Result {
	const name = "Play Channel"
	c := NewTestClient(uniqueName("Wanderer"), address)
	defer c.Close()

	id, err := createPlayable(c)
	if err != nil {
		return fail(name, "%v", err)
	}
	if err := c.ConnectPlay(id); err != nil {
		return fail(name, "%v", err)
	}
	if hello, err := c.Next("hello", 2*time.Second); err != nil || hello.ConnectionID == "" {
		return fail(name, "No hello received: %v", err)
	}

	logAction(name, "Sending turn")
	if err := c.Send("turn", map[string]any{"response": "I walked until dawn."}); err != nil {
		return fail(name, "Send failed: %v", err)
	}
	reply, err := c.Next("turn", 2*time.Second)
	if err != nil {
		return fail(name, "%v", err)
	}
	if reply.Op != "turn" {
		return fail(name, "Turn rejected with %d: %s", reply.Status, reply.Error)
	}
	var turn struct {
		Next int `json:"next_prompt_number"`
	}
	if err := json.Unmarshal(reply.Data, &turn); err != nil || turn.Next < 1 {
		return fail(name, "Unexpected turn data %s", reply.Data)
	}
	logAction(name, fmt.Sprintf("Moved to prompt %d", turn.Next))

	if err := c.Send("turn", map[string]any{"response": ""}); err != nil {
		return fail(name, "Send failed: %v", err)
	}
	if reply, err := c.Next("turn", 2*time.Second); err != nil || reply.Status != 400 {
		return fail(name, "Empty response was not rejected: %+v %v", reply, err)
	}
	return Result{Name: name, Passed: true, Message: "Turn played over WebSocket"}
}

// PrintResults prints all results in a formatted way
func PrintResults(results []Result) {
	passed := 0
	failed := 0

	fmt.Println("============================================================")
	fmt.Println("Smoke Test Results")
	fmt.Println("============================================================")
	fmt.Println()

	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			failed++
		} else {
			passed++
		}
		fmt.Printf("[%s] %s: %s\n", status, r.Name, r.Message)
	}

	fmt.Println()
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Total: %d | Passed: %d | Failed: %d\n", len(results), passed, failed)
	fmt.Println("------------------------------------------------------------")
}
