package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/bullcow/internal/model"
)

const (
	dialTimeout = 10 * time.Second
	closeWait   = time.Second
)

var errQuit = errors.New("quit")

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a live game over WebSocket",
		Long: `Open an interactive game session.

Once connected, type commands on stdin:
  secret NNNN   choose your secret (4 distinct digits)
  guess NNNN    guess the opponent's secret on your turn
  rematch       ask for a rematch after a game
  bot [name]    start a game against a computer opponent
  leave         leave the matchmaking queue
  quit          disconnect

Events from the server are printed as they arrive. Quitting mid-game starts
the reconnect grace period; run play again with the same player id to resume.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "queue",
		Short: "Join the matchmaking queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), model.CommandQueueJoin, nil)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create a private room and print its code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), model.CommandRoomCreate, nil)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "join <code>",
		Short: "Join a private room by code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), model.CommandRoomJoin, model.RoomJoinPayload{Code: args[0]})
		},
	})

	var strategy string
	botCmd := &cobra.Command{
		Use:   "bot",
		Short: "Play against a computer opponent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), model.CommandBotMatch, model.BotMatchPayload{Strategy: strategy})
		},
	}
	botCmd.Flags().StringVar(&strategy, "strategy", "", "Bot strategy: random or consistent (server default if empty)")
	cmd.AddCommand(botCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "resume",
		Short: "Reconnect to a game in progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), "", nil)
		},
	})

	return cmd
}

// session is one live socket to the server
type session struct {
	conn    *websocket.Conn
	out     *Output
	writeMu sync.Mutex
}

func runPlay(ctx context.Context, opening model.CommandType, payload any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	wsURL, err := client.WebSocketURL()
	if err != nil {
		return err
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", wsURL, err)
	}

	s := &session{conn: conn, out: NewOutput(cfg.Output)}
	defer s.close()

	if opening != "" {
		if err := s.send(opening, payload); err != nil {
			return err
		}
	}

	readErr := make(chan error, 1)
	go func() { readErr <- s.readLoop() }()

	lines := make(chan string)
	go scanLines(os.Stdin, lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := s.handleInput(line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				s.out.PrintError(err)
			}
		}
	}
}

func (s *session) handleInput(line string) error {
	action, ok, err := parseInput(line)
	if err != nil || !ok {
		return err
	}
	if action.quit {
		return errQuit
	}
	return s.send(action.command, action.payload)
}

func (s *session) send(t model.CommandType, payload any) error {
	env, err := model.NewEnvelope(t, payload)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	return nil
}

func (s *session) readLoop() error {
	for {
		var ev IncomingEvent
		if err := s.conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}
		s.out.PrintEvent(ev)
	}
}

func (s *session) close() {
	s.writeMu.Lock()
	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeWait),
	)
	s.writeMu.Unlock()
	_ = s.conn.Close()
}

// inputAction is one parsed line of user input
type inputAction struct {
	command model.CommandType
	payload any
	quit    bool
}

// parseInput turns a line typed by the user into a command.
// Blank lines report ok=false.
func parseInput(line string) (inputAction, bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return inputAction{}, false, nil
	}

	verb := strings.ToLower(fields[0])
	args := fields[1:]

	needArg := func() (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("usage: %s <value>", verb)
		}
		return args[0], nil
	}

	switch verb {
	case "secret":
		v, err := needArg()
		if err != nil {
			return inputAction{}, false, err
		}
		return inputAction{command: model.CommandSecretSubmit, payload: model.SecretSubmitPayload{Secret: v}}, true, nil
	case "guess":
		v, err := needArg()
		if err != nil {
			return inputAction{}, false, err
		}
		return inputAction{command: model.CommandGuessSubmit, payload: model.GuessSubmitPayload{Guess: v}}, true, nil
	case "join":
		v, err := needArg()
		if err != nil {
			return inputAction{}, false, err
		}
		return inputAction{command: model.CommandRoomJoin, payload: model.RoomJoinPayload{Code: v}}, true, nil
	case "rematch":
		return inputAction{command: model.CommandRematchRequest}, true, nil
	case "queue":
		return inputAction{command: model.CommandQueueJoin}, true, nil
	case "create":
		return inputAction{command: model.CommandRoomCreate}, true, nil
	case "leave":
		return inputAction{command: model.CommandQueueLeave}, true, nil
	case "bot":
		if len(args) > 1 {
			return inputAction{}, false, fmt.Errorf("usage: bot [strategy]")
		}
		var payload model.BotMatchPayload
		if len(args) == 1 {
			payload.Strategy = args[0]
		}
		return inputAction{command: model.CommandBotMatch, payload: payload}, true, nil
	case "quit", "exit":
		return inputAction{quit: true}, true, nil
	default:
		return inputAction{}, false, fmt.Errorf("unknown command %q", verb)
	}
}

func scanLines(r io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
}
