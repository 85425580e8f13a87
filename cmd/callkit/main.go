package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tanmay/callkit/internal/app"
	"github.com/tanmay/callkit/internal/banner"
	"github.com/tanmay/callkit/internal/config"
	"github.com/tanmay/callkit/internal/httpapi"
	"github.com/tanmay/callkit/internal/logger"
	"github.com/tanmay/callkit/internal/media"
	"github.com/tanmay/callkit/internal/navigation"
	"github.com/tanmay/callkit/internal/signaling"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.LogLevel)
	outputs := []io.Writer{os.Stdout}
	if cfg.LogFile != "" {
		outputs = append(outputs, logger.FileOutput(cfg.LogFile))
	}
	logger.InitLogger(outputs...)

	banner.Print("CallKit", []banner.ConfigLine{
		{Label: "Role", Value: cfg.Role},
		{Label: "Identity", Value: cfg.Identity},
		{Label: "Signaling", Value: cfg.SignalingURL},
		{Label: "Control API", Value: "http://" + cfg.APIBind},
	})

	if err := run(cfg); err != nil {
		slog.Error("Client error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, mediaFactory, demoStop, err := buildChannel(ctx, cfg)
	if err != nil {
		return err
	}
	defer ch.Close()
	if demoStop != nil {
		defer demoStop()
	}

	nav := navigation.NewChannelPublisher(16)
	pub := navigation.NewMultiPublisher(
		navigation.NewLoggingPublisher(slog.Default()),
		nav,
	)
	defer pub.Close()

	client := app.New(ch, cfg.IsTelecaller(), pub, mediaFactory, slog.Default())
	client.Start()
	defer client.Close()

	api := httpapi.New(cfg.APIBind, client, nav, slog.Default())

	errCh := make(chan error, 1)
	go func() {
		errCh <- api.Start()
	}()

	if cfg.Demo {
		go runDemoCall(ctx, cfg)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down", "signal", sig)
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutdownCancel()
	return api.Shutdown(shutdownCtx)
}

// buildChannel returns the signaling channel and media factory. In demo
// mode everything runs in-process: a loopback channel pair with a
// scripted answering peer, and scripted media sessions that connect
// immediately.
func buildChannel(ctx context.Context, cfg *config.Config) (signaling.Channel, app.MediaFactory, func(), error) {
	if cfg.Demo {
		local, remote := signaling.NewLoopbackPair()
		stop := startDemoPeer(remote)
		factory := func(video bool) media.Session {
			s := media.NewScriptedSession()
			s.AutoConnect = true
			return s
		}
		return local, factory, stop, nil
	}

	dialCtx, dialCancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer dialCancel()

	header := http.Header{}
	if cfg.AuthToken != "" {
		header.Set("Authorization", "Bearer "+cfg.AuthToken)
	}
	ch, err := signaling.DialWS(dialCtx, cfg.SignalingURL, header, slog.Default())
	if err != nil {
		return nil, nil, nil, err
	}
	return ch, nil, nil, nil
}

// startDemoPeer plays the far side of a demo call: it answers any
// initiate with ringing, then accepted, and echoes hangups.
func startDemoPeer(peer *signaling.LoopbackChannel) func() {
	unInit := peer.Subscribe(signaling.EventInitiate, func(raw json.RawMessage) {
		var p signaling.InitiatePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return
		}
		callID := "demo-" + p.ParticipantID
		peer.Emit(signaling.EventRinging, signaling.RingingPayload{CallID: callID})
		go func() {
			time.Sleep(300 * time.Millisecond)
			peer.Emit(signaling.EventAccepted, signaling.AcceptedPayload{
				CallID: callID,
				Media: signaling.MediaGrant{
					Token:     "demo-token",
					ServerURL: "ws://demo.invalid",
					RoomName:  "demo-room",
				},
			})
		}()
	})
	unEnd := peer.Subscribe(signaling.EventEnd, func(raw json.RawMessage) {
		var p signaling.EndPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return
		}
		peer.Emit(signaling.EventEnded, signaling.EndedPayload{CallID: p.CallID})
	})
	return func() {
		unInit()
		unEnd()
	}
}

// runDemoCall drives one loopback call end to end through the control
// API, so a fresh checkout shows the full lifecycle without a server.
func runDemoCall(ctx context.Context, cfg *config.Config) {
	time.Sleep(500 * time.Millisecond)

	base := "http://" + cfg.APIBind
	body := `{"participant_id":"demo-telecaller","display_name":"Demo Telecaller","call_type":"audio"}`
	resp, err := http.Post(base+"/api/call/start", "application/json", strings.NewReader(body))
	if err != nil {
		slog.Error("[Demo] start failed", "error", err)
		return
	}
	resp.Body.Close()

	select {
	case <-ctx.Done():
		return
	case <-time.After(5 * time.Second):
	}

	resp, err = http.Post(base+"/api/call/hangup", "application/json", nil)
	if err != nil {
		slog.Error("[Demo] hangup failed", "error", err)
		return
	}
	resp.Body.Close()
	slog.Info("[Demo] call completed")
}
