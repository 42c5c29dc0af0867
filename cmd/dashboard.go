package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kayz/biometrics/internal/dashboard"
	"github.com/kayz/biometrics/internal/logger"
)

var dashboardURL string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Terminal dashboard for the agent roster",
	Long: `Terminal dashboard for the agent roster.

Connects to a running "biometrics serve". Without a server the dashboard
shows generated demo data until a connection succeeds.

Keys: f cycles the agent filter, q quits.`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardURL, "url", "", "Dashboard server URL (default from config)")
	rootCmd.AddCommand(dashboardCmd)
}

// boardChanged tells the program to re-read the board.
type boardChanged struct{}

type dashboardModel struct {
	board   *dashboard.Board
	changes <-chan struct{}
	state   dashboard.State
	width   int
}

func newDashboardModel(board *dashboard.Board, changes <-chan struct{}) dashboardModel {
	return dashboardModel{board: board, changes: changes, state: board.Snapshot(), width: 100}
}

func (m dashboardModel) waitForChange() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-m.changes; !ok {
			return nil
		}
		return boardChanged{}
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return m.waitForChange()
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "f":
			m.board.CycleFilter()
			m.state = m.board.Snapshot()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case boardChanged:
		m.state = m.board.Snapshot()
		return m, m.waitForChange()
	}
	return m, nil
}

func (m dashboardModel) View() string {
	return dashboard.Render(m.state, m.width) + "\n"
}

func runDashboard(cmd *cobra.Command, args []string) error {
	target := dashboardURL
	if target == "" {
		target = loadedConfig().Dashboard.URL
	}

	// Coalesce notifications: one pending change is enough for a redraw.
	changes := make(chan struct{}, 1)
	board := dashboard.NewBoard(nil, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	board.Start()
	defer board.Stop()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	client := dashboard.NewClient(target, board)
	if err := client.Bootstrap(ctx); err != nil {
		logger.Debug("[Dashboard] %v", err)
	}
	go client.Run(ctx)

	p := tea.NewProgram(newDashboardModel(board, changes), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err == tea.ErrProgramKilled {
		return nil
	}
	return err
}
