package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	resultstore "github.com/edge-optimizer/warmup-engine/pkg/result-store"
	"github.com/edge-optimizer/warmup-engine/pkg/token"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	hitColor   = color.New(color.FgGreen)
	missColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
)

// client sends one warmup request per target to the engine.
type client struct {
	endpoint string
	secret   string
	urlType  string
	http     *http.Client
	// journal is optional
	journal resultstore.Store
	out     io.Writer
	now     func() time.Time
}

// clientError is counted for targets without a usable engine answer.
const clientError = "client_error"

type outcome struct {
	Entry resultstore.Entry
	Err   error
}

// readTargets returns the non-empty lines of r that are not comments.
func readTargets(r io.Reader) ([]string, error) {
	targets := make([]string, 0)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	return targets, scanner.Err()
}

// run warms all targets in order as one round and returns its summary.
func (c *client) run(ctx context.Context, targets []string) resultstore.Summary {
	logger := zerolog.Ctx(ctx)
	roundID := c.now().Unix()
	var sum resultstore.Summary
	for i, target := range targets {
		o := c.warm(ctx, roundID, i+1, target)
		c.print(o)
		if o.Err != nil {
			e := o.Entry
			e.ErrorReason = clientError
			sum.Add(e)
			continue
		}
		sum.Add(o.Entry)
		if c.journal != nil {
			if err := c.journal.Put(ctx, o.Entry); err != nil {
				logger.Error().Err(err).Str("url", target).Msg("Could not record result")
			}
		}
	}
	logger.Debug().Int64("round", roundID).Msgf("Round done: %+v", sum)
	return sum
}

func (c *client) warm(ctx context.Context, roundID int64, number int, target string) outcome {
	e := resultstore.Entry{
		RoundID:     roundID,
		RequestUUID: uuid.NewString(),
		TargetURL:   target,
	}
	data := map[string]interface{}{
		"targetUrl":      target,
		"token":          token.Calc(target, c.secret),
		"requestNumber":  number,
		"requestUUID":    e.RequestUUID,
		"requestRoundId": roundID,
	}
	if c.urlType != "" {
		data["urltype"] = c.urlType
	}
	body, err := json.Marshal(map[string]interface{}{"data": data})
	if err != nil {
		return outcome{Entry: e, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return outcome{Entry: e, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return outcome{Entry: e, Err: err}
	}
	defer resp.Body.Close()

	e.EngineStatus = resp.StatusCode
	e.RecordedAt = c.now()
	if e.Result, err = io.ReadAll(resp.Body); err != nil {
		return outcome{Entry: e, Err: err}
	}
	var result map[string]interface{}
	if err := json.Unmarshal(e.Result, &result); err != nil {
		return outcome{Entry: e, Err: fmt.Errorf("decoding engine response (status %d): %w", resp.StatusCode, err)}
	}
	if status, ok := result["headers.general.status-code"].(float64); ok {
		e.OriginStatus = int(status)
	}
	e.CacheStatus, _ = result["eo.meta.cdn-cache-status"].(string)
	e.ErrorReason, _ = result["error.reason"].(string)
	return outcome{Entry: e}
}

func (c *client) print(o outcome) {
	e := o.Entry
	switch {
	case o.Err != nil:
		errorColor.Fprintf(c.out, "ERROR %s: %v\n", e.TargetURL, o.Err)
	case e.ErrorReason != "":
		errorColor.Fprintf(c.out, "%d %s %s\n", e.EngineStatus, e.ErrorReason, e.TargetURL)
	case resultstore.IsHit(e.CacheStatus):
		hitColor.Fprintf(c.out, "%d %s %s\n", e.OriginStatus, e.CacheStatus, e.TargetURL)
	default:
		status := e.CacheStatus
		if status == "" {
			status = "-"
		}
		missColor.Fprintf(c.out, "%d %s %s\n", e.OriginStatus, status, e.TargetURL)
	}
}
