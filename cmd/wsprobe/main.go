// wsprobe connects to one realtime channel and prints what arrives.
// Lines typed on stdin are sent as chat messages (chat channel) or parsed
// as "<action> <participant>" participant updates (meeting channel).
//
// Usage:
//
//	go run ./cmd/wsprobe --base https://meet.example.com --channel chat --meeting M1
//	go run ./cmd/wsprobe --config configs/relay.local.yaml --channel notifications
//
// A bearer token may be given with --token or the SYNCMEET_TOKEN variable.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/syncmeet/realtime/internal/auth"
	"github.com/syncmeet/realtime/internal/config"
	"github.com/syncmeet/realtime/internal/connection"
)

func main() {
	configPath := flag.String("config", "", "optional relay config file")
	baseURL := flag.String("base", "", "backend base URL (overrides config)")
	channel := flag.String("channel", "chat", "channel: meeting, chat or notifications")
	meetingID := flag.String("meeting", "", "meeting id for meeting/chat channels")
	token := flag.String("token", os.Getenv(config.EnvToken), "bearer token")
	senderID := flag.String("sender-id", "wsprobe", "sender id for outbound chat")
	senderName := flag.String("sender-name", "wsprobe", "sender name for outbound chat")
	verbose := flag.Bool("verbose", false, "print full envelope JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	regCfg := connection.DefaultRegistryConfig()
	if *configPath != "" {
		cfg, err := config.LoadWithDefaults(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		regCfg = cfg.RegistryConfig()
		if *token == "" {
			*token = cfg.API.Token
		}
	}
	if *baseURL != "" {
		regCfg.BaseURL = *baseURL
	}

	if *channel != "notifications" && *meetingID == "" {
		logger.Error("--meeting is required for meeting and chat channels")
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	session := auth.NewSession(*token)
	registry := connection.NewRegistry(regCfg, logger, connection.WithHeaderSource(session))
	channels := connection.NewChannels(registry)

	handlers := printHandlers(*verbose, cancel)

	var ok bool
	switch *channel {
	case "meeting":
		ok = channels.ConnectToMeeting(*meetingID, handlers)
	case "chat":
		ok = channels.ConnectToChat(*meetingID, handlers)
	case "notifications":
		ok = channels.ConnectToNotifications(handlers)
	default:
		logger.Error("unknown channel", "channel", *channel)
		os.Exit(2)
	}
	if !ok {
		os.Exit(1)
	}

	go readInput(ctx, channels, *channel, *meetingID, *senderID, *senderName, logger)

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	registry.Shutdown(shutdownCtx)
}

func printHandlers(verbose bool, stop context.CancelFunc) connection.Handlers {
	return connection.Handlers{
		OnMessage: func(env connection.Envelope) {
			if verbose {
				data, _ := json.Marshal(env)
				fmt.Printf("[%s] %s\n", env.Type, data)
			}
		},
		OnChatMessage: func(msg connection.ChatMessage) {
			fmt.Printf("[CHAT] %s %s: %s\n",
				msg.Timestamp.Local().Format("15:04:05"), msg.SenderName, msg.Message)
		},
		OnParticipantUpdate: func(upd connection.ParticipantUpdate) {
			fmt.Printf("[PARTICIPANT] %s %s in %s\n", upd.ParticipantID, upd.Action, upd.MeetingID)
		},
		OnNotification: func(n connection.Notification) {
			fmt.Printf("[NOTIFY] %-18s %s: %s\n", n.Type, n.Title, n.Message)
		},
		OnConnectionChange: func(connected bool) {
			fmt.Printf("[STATE] connected=%v\n", connected)
		},
		OnError: func(err *connection.Error) {
			fmt.Printf("[ERROR] %v\n", err)
			if err.Terminal() || err.Kind == connection.KindSetup {
				stop()
			}
		},
	}
}

func readInput(ctx context.Context, ch *connection.Channels, channel, meetingID, senderID, senderName string, logger *slog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var sent bool
		switch channel {
		case "chat":
			sent = ch.SendChatMessage(meetingID, line, senderID, senderName)
		case "meeting":
			fields := strings.Fields(line)
			if len(fields) != 2 {
				logger.Warn("expected: <action> <participant-id>")
				continue
			}
			sent = ch.SendParticipantUpdate(meetingID, connection.ParticipantAction(fields[0]), fields[1])
		default:
			logger.Warn("notifications channel is receive-only")
			continue
		}

		if !sent {
			logger.Warn("message not sent", "state", ch.Registry().State(endpointFor(channel, meetingID)))
		}
	}
}

func endpointFor(channel, meetingID string) string {
	switch channel {
	case "meeting":
		return connection.MeetingEndpoint(meetingID)
	case "chat":
		return connection.ChatEndpoint(meetingID)
	}
	return connection.NotificationsEndpoint
}
