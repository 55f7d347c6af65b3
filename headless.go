package main

import (
	"context"
	"fmt"
	"io"

	"snake-client/client"
	"snake-client/render"
	"snake-client/session"
)

// runHeadless prints view changes and diagnostics as lines of text. With
// autoReady it presses ready and restart whenever they are offered.
func runHeadless(ctx context.Context, sess *session.Session, diags <-chan client.Diagnostic, out io.Writer, autoReady bool) error {
	id, views := sess.Subscribe()
	defer sess.Unsubscribe(id)

	var prev *session.View
	for {
		select {
		case <-ctx.Done():
			return nil

		case d := <-diags:
			fmt.Fprintf(out, "[%s] %s\n", d.At.Format("15:04:05"), d)

		case v, ok := <-views:
			if !ok {
				return nil
			}
			for _, line := range describe(prev, v) {
				fmt.Fprintln(out, line)
			}
			prev = &v

			if autoReady {
				switch {
				case v.ShowRankings:
					sess.Restart()
				case v.ShowMatchingPanel && v.ReadyEnabled:
					sess.Ready()
				}
			}
		}
	}
}

// describe returns the lines that changed between two views.
func describe(prev *session.View, v session.View) []string {
	var lines []string
	if prev == nil {
		lines = append(lines, render.Title)
	}
	if v.ShowMatchingPanel && (prev == nil || !prev.ShowMatchingPanel || prev.Current != v.Current || prev.Required != v.Required || prev.Ready != v.Ready) {
		lines = append(lines, render.MatchingLine(v.Current, v.Required)+" ["+render.ReadyButton(v.Ready)+"]")
	}
	if prev == nil || prev.Phase != v.Phase {
		lines = append(lines, "-- "+v.Phase.String()+" --")
	}
	if v.ShowRankings && (prev == nil || !prev.ShowRankings) {
		lines = append(lines, render.GameOverTitle)
		lines = append(lines, render.RankingLines(v.Rankings)...)
	}
	return lines
}
