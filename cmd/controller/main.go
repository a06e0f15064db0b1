package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/flow"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/transport"
)

// #region main
func main() {
	addr := envOr("CRISIS_ADDR", "localhost:50061")

	client, err := transport.NewSessionClient(addr)
	if err != nil {
		log.Fatalf("failed to connect to session service at %s: %v", addr, err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	snap, err := client.Snapshot(ctx)
	cancel()
	if err != nil {
		log.Fatalf("snapshot: %v", err)
	}

	fmt.Println("Crisis decision controller ready.")
	fmt.Printf("  Session: %s\n", addr)
	fmt.Println("Type 'help' for commands (or 'quit' to exit).")
	printSnapshot(snap)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if line == "help" {
			printHelp()
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if line == "show" {
			snap, err = client.Snapshot(ctx)
		} else {
			req, perr := parseCommand(line)
			if perr != nil {
				cancel()
				fmt.Println(perr)
				continue
			}
			snap, err = client.Act(ctx, req)
		}
		cancel()
		if err != nil {
			log.Printf("session error: %v", err)
			continue
		}
		printSnapshot(snap)

		if snap.Accepted && snap.Transition != nil && snap.Transition.Kind == flow.TransitionAdvance {
			if next, err := awaitScenario(client, snap.ScenarioIndex+1); err != nil {
				log.Printf("waiting for next scenario: %v", err)
			} else {
				printSnapshot(next)
			}
		}
	}
}

// #endregion main

// #region commands
// parseCommand maps a REPL line onto a session action.
func parseCommand(line string) (transport.ActRequest, error) {
	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	yes, no := true, false

	switch fields[0] {
	case "select":
		return transport.ActRequest{Action: flow.ActionSelectOption, OptionID: arg}, nil
	case "alts":
		return transport.ActRequest{Action: flow.ActionRequestAlternatives}, nil
	case "add":
		return transport.ActRequest{Action: flow.ActionAddAlternative, OptionID: arg}, nil
	case "keep":
		return transport.ActRequest{Action: flow.ActionConfirmKeepChoice}, nil
	case "review":
		return transport.ActRequest{Action: flow.ActionReviewAlternatives}, nil
	case "yes":
		return transport.ActRequest{Action: flow.ActionAnswerReflection, Answer: &yes}, nil
	case "no":
		return transport.ActRequest{Action: flow.ActionAnswerReflection, Answer: &no}, nil
	case "rank":
		if len(fields) < 3 {
			return transport.ActRequest{}, fmt.Errorf("usage: rank values|metrics id,id,...")
		}
		return transport.ActRequest{Action: flow.ActionSubmitRanking, Basis: arg, Order: strings.Split(fields[2], ",")}, nil
	case "pick":
		return transport.ActRequest{Action: flow.ActionSelectRankedOption, OptionID: arg}, nil
	case "confirm":
		return transport.ActRequest{Action: flow.ActionConfirmDecision}, nil
	case "reset":
		return transport.ActRequest{Action: flow.ActionReset}, nil
	case "advance":
		return transport.ActRequest{Action: flow.ActionAdvance}, nil
	}
	return transport.ActRequest{}, fmt.Errorf("unknown command %q (try 'help')", fields[0])
}

func printHelp() {
	fmt.Println(`  show                       current scenario and state
  select <id>                choose a visible option
  alts | add <id>            open alternatives, add one to the visible set
  keep | review              keep the selection, or go back to alternatives
  yes | no                   answer the reflection question
  rank values|metrics a,b,c  submit a ranking on the adaptive path
  pick <id>                  choose a ranked option
  confirm | reset | advance`)
}

// awaitScenario polls until the server has applied the deferred advance.
func awaitScenario(client *transport.SessionClient, index int) (transport.Snapshot, error) {
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		snap, err := client.Snapshot(ctx)
		cancel()
		if err != nil {
			return snap, err
		}
		if snap.ScenarioIndex >= index {
			return snap, nil
		}
		time.Sleep(250 * time.Millisecond)
	}
	return transport.Snapshot{}, fmt.Errorf("scenario %d not reached", index+1)
}

// #endregion commands

// #region output
func printSnapshot(s transport.Snapshot) {
	if !s.Accepted {
		fmt.Printf("[rejected] %s\n", s.Message)
		return
	}
	fmt.Printf("\n== %s (scenario %d) [%s] phase=%s\n", s.Title, s.ScenarioIndex+1, s.Tier, s.State.Phase)
	for _, o := range s.Options {
		fmt.Printf("  %-28s %-16s %s\n", o.ID, o.Label, o.Title)
	}
	for _, o := range s.Alternatives {
		fmt.Printf("  + %-26s %-16s %s\n", o.ID, o.Label, o.Title)
	}
	for _, o := range s.State.RankedOptions {
		fmt.Printf("  * %-26s %-16s %s\n", o.ID, o.Label, o.Title)
	}
	if s.State.Selected != nil {
		fmt.Printf("  selected: %s\n", s.State.Selected.ID)
	}
	m := s.Metrics
	fmt.Printf("  lives=%d casualties=%d resources=%d infra=%d biodiversity=%d properties=%d station=%d\n",
		m.LivesSaved, m.HumanCasualties, m.FirefightingResource, m.InfrastructureCondition,
		m.BiodiversityCondition, m.PropertiesCondition, m.NuclearPowerStation)
	if s.Message != "" {
		fmt.Printf("  %s\n", s.Message)
	}
	if s.Done {
		fmt.Println("  session complete")
	}
}

// #endregion output

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
