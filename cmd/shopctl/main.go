package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/steph2502/oohlalaa-shop-go/internal/config"
	"github.com/steph2502/oohlalaa-shop-go/internal/notify"
	"github.com/steph2502/oohlalaa-shop-go/internal/store"
	"github.com/steph2502/oohlalaa-shop-go/internal/sweeper"
	"github.com/steph2502/oohlalaa-shop-go/pkg/idempotency"
)

type action struct {
	Name        string
	Description string
}

type model struct {
	actions  []action
	selected int
	status   string
	busy     bool
}

func initialModel() model {
	return model{
		actions: []action{
			{"seed", "Load the starter fragrance catalog"},
			{"sweep", "Cancel expired unpaid orders now"},
			{"stats", "Print catalog and revenue stats"},
			{"checkout", "Run a checkout smoke test against the API"},
		},
		status: "Ready",
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up":
			if m.selected > 0 {
				m.selected--
			}
		case "down":
			if m.selected < len(m.actions)-1 {
				m.selected++
			}
		case "enter":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Running..."
			return m, runActionCmd(m.actions[m.selected].Name)
		}
	case actionResult:
		m.busy = false
		m.status = msg.status
	}
	return m, nil
}

func (m model) View() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, "oohlalaa shopctl")
	fmt.Fprintln(b, "")
	for i, a := range m.actions {
		marker := " "
		if i == m.selected {
			marker = ">"
		}
		fmt.Fprintf(b, " %s %s - %s\n", marker, a.Name, a.Description)
	}
	fmt.Fprintln(b, "")
	fmt.Fprintf(b, "Status: %s\n", m.status)
	fmt.Fprintln(b, "\nControls: up/down select, enter to run, q to quit")
	return b.String()
}

type actionResult struct {
	status string
}

func runActionCmd(name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		switch name {
		case "seed":
			return withStore(ctx, func(st store.Store) actionResult {
				n, err := seedProducts(ctx, st)
				if err != nil {
					return actionResult{status: fmt.Sprintf("Seed failed after %d products: %v", n, err)}
				}
				return actionResult{status: fmt.Sprintf("Seeded %d products", n)}
			})
		case "sweep":
			return withStore(ctx, func(st store.Store) actionResult {
				// Dry notifier: expiry messages are not sent from the CLI.
				job := sweeper.New(st, notify.NewService(notify.NewRecorder(), nil), time.Minute, nil)
				n, err := job.SweepOnce(ctx)
				if err != nil {
					return actionResult{status: fmt.Sprintf("Sweep failed: %v", err)}
				}
				return actionResult{status: fmt.Sprintf("Cancelled %d expired orders", n)}
			})
		case "stats":
			return withStore(ctx, func(st store.Store) actionResult {
				var stats store.Stats
				err := st.WithinTx(ctx, func(tx store.Tx) error {
					var err error
					stats, err = tx.Stats(ctx, 5)
					return err
				})
				if err != nil {
					return actionResult{status: fmt.Sprintf("Stats failed: %v", err)}
				}
				return actionResult{status: fmt.Sprintf(
					"products=%d orders=%d paid=%d revenue=NGN %d low_stock=%d",
					stats.TotalProducts, stats.TotalOrders, stats.PaidOrders, stats.Revenue, len(stats.LowStock))}
			})
		case "checkout":
			resp, err := smokeCheckout(ctx, getenv("SHOP_BASE_URL", "http://localhost:8080"))
			if err != nil {
				return actionResult{status: fmt.Sprintf("Checkout failed: %v", err)}
			}
			return actionResult{status: fmt.Sprintf("Checkout OK: %s", resp)}
		default:
			return actionResult{status: fmt.Sprintf("Unknown action %q", name)}
		}
	}
}

func withStore(ctx context.Context, fn func(st store.Store) actionResult) actionResult {
	cfg, err := config.Load(os.Getenv("OOHLALAA_CONFIG"))
	if err != nil {
		return actionResult{status: fmt.Sprintf("Config error: %v", err)}
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return actionResult{status: "OOHLALAA_DATABASE_URL is required"}
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return actionResult{status: fmt.Sprintf("DB connect error: %v", err)}
	}
	defer pool.Close()
	return fn(store.NewPostgres(pool))
}

// smokeCheckout adds one seeded item to a throwaway cart and checks out.
func smokeCheckout(ctx context.Context, baseURL string) (string, error) {
	customer := "smoke-" + uuid.NewString()[:8]

	_, err := postJSON(ctx, baseURL+"/cart/add", map[string]any{
		"customerId": customer,
		"productId":  "khamrah-lattafa",
		"size":       10,
		"quantity":   1,
	}, "")
	if err != nil {
		return "", fmt.Errorf("cart add: %w", err)
	}

	return postJSON(ctx, baseURL+"/orders/checkout", map[string]any{
		"customerId":   customer,
		"customerName": "Smoke Test",
	}, uuid.NewString())
}

func postJSON(ctx context.Context, url string, payload any, idemKey string) (string, error) {
	data, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if idemKey != "" {
		req.Header.Set(idempotency.Header, idemKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return string(body), nil
}

func main() {
	runCmd := flag.String("run", "", "run action: seed|sweep|stats|checkout")
	flag.Parse()

	if *runCmd != "" {
		res := runActionCmd(*runCmd)().(actionResult)
		fmt.Println(res.status)
		return
	}

	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
