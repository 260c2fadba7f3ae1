package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/AaronLay10/GameMap/internal/events"
)

// Command names accepted on the commands topic.
const (
	CommandOpen          = "open"
	CommandReset         = "reset"
	CommandShowSolutions = "show_solutions"
)

// Command is the JSON payload of an operator command. An empty StageID on
// reset or show_solutions targets the whole map.
type Command struct {
	Command string `json:"command"`
	StageID string `json:"stage_id,omitempty"`
}

// Commander is the map surface commands act on.
type Commander interface {
	OpenStage(id string) error
	ResetStage(id string) error
	Reset()
	ShowSolutions(id string) error
	ShowAllSolutions()
}

// Runner runs fn on the goroutine that owns the map.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// CommandSubscriber applies operator commands received over MQTT.
type CommandSubscriber struct {
	client    Subscriber
	runner    Runner
	commander Commander
	topic     string
	timeout   time.Duration
}

// NewCommandSubscriber creates a subscriber for CommandsTopic(contentID).
func NewCommandSubscriber(client Subscriber, runner Runner, commander Commander, contentID string) *CommandSubscriber {
	return &CommandSubscriber{
		client:    client,
		runner:    runner,
		commander: commander,
		topic:     CommandsTopic(contentID),
		timeout:   5 * time.Second,
	}
}

// Topic returns the commands topic.
func (s *CommandSubscriber) Topic() string { return s.topic }

// Subscribe registers the command handler with the broker.
func (s *CommandSubscriber) Subscribe() error {
	return s.client.Subscribe(s.topic, s.handler)
}

// Handler returns the paho handler, for use with Client.StartWithRetry.
func (s *CommandSubscriber) Handler() paho.MessageHandler { return s.handler }

func (s *CommandSubscriber) handler(_ paho.Client, msg paho.Message) {
	if err := s.Handle(msg.Payload()); err != nil {
		Logger().Warn("mqtt command rejected", zap.String("topic", msg.Topic()), zap.Error(err))
		events.Emit("warn", "system.error", "mqtt command rejected", map[string]interface{}{
			"topic": msg.Topic(),
			"error": err.Error(),
		})
	}
}

// ParseCommand decodes and validates a command payload.
func ParseCommand(payload []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return nil, fmt.Errorf("invalid command payload: %w", err)
	}
	switch cmd.Command {
	case CommandOpen:
		if cmd.StageID == "" {
			return nil, fmt.Errorf("command %q requires stage_id", cmd.Command)
		}
	case CommandReset, CommandShowSolutions:
	default:
		return nil, fmt.Errorf("unknown command %q", cmd.Command)
	}
	return &cmd, nil
}

// Handle parses payload and applies it on the map's goroutine.
func (s *CommandSubscriber) Handle(payload []byte) error {
	cmd, err := ParseCommand(payload)
	if err != nil {
		return err
	}

	events.Emit("info", "mqtt.command", "", map[string]interface{}{
		"command":  cmd.Command,
		"stage_id": cmd.StageID,
	})

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var applyErr error
	if err := s.runner.Do(ctx, func() { applyErr = s.apply(cmd) }); err != nil {
		return err
	}
	return applyErr
}

func (s *CommandSubscriber) apply(cmd *Command) error {
	switch cmd.Command {
	case CommandOpen:
		return s.commander.OpenStage(cmd.StageID)
	case CommandReset:
		if cmd.StageID == "" {
			s.commander.Reset()
			return nil
		}
		return s.commander.ResetStage(cmd.StageID)
	case CommandShowSolutions:
		if cmd.StageID == "" {
			s.commander.ShowAllSolutions()
			return nil
		}
		return s.commander.ShowSolutions(cmd.StageID)
	}
	return nil
}
