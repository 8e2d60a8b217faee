package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/radoslav1992/ai-help-center/internal/i18n"
	"github.com/radoslav1992/ai-help-center/internal/model/chat"
	"github.com/radoslav1992/ai-help-center/internal/widget"
	"github.com/radoslav1992/ai-help-center/pkg/client"
)

// prompter is the line editor the chat loop reads from.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := client.New(opts.server, &http.Client{Timeout: opts.timeout})
			if err != nil {
				return err
			}

			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)

			return runChat(cmd.Context(), api, i18n.ParseOrDefault(lang), line, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", string(i18n.Default), "widget language (en, bg)")
	return cmd
}

// runChat runs the widget controller as a REPL until EOF, an aborted
// prompt or /quit.
func runChat(ctx context.Context, api widget.ChatAPI, lang i18n.Language, in prompter, out io.Writer) error {
	selector := i18n.NewSelector(lang)
	ctl := widget.New(api, selector)
	defer ctl.Dispose()

	printed := 0
	flush := func(skipUser bool) {
		snap := ctl.Snapshot()
		for _, m := range snap.Messages[printed:] {
			if !(skipUser && m.Role == chat.RoleUser) {
				fmt.Fprintln(out, renderMessage(m))
			}
		}
		printed = len(snap.Messages)
	}

	open := func() {
		fmt.Fprintln(out, titleStyle.Render(ctl.Snapshot().Text.ChatWithUs))
		ctl.Open(ctx)
		ctl.Wait()
		flush(false)
		if ctl.Snapshot().SessionID == "" {
			fmt.Fprintln(out, errorStyle.Render("could not start a session"))
		}
	}
	open()

	for {
		input, err := in.Prompt("> ")
		if err != nil {
			if err == io.EOF || err == liner.ErrPromptAborted {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		text := strings.TrimSpace(input)
		if text == "" {
			continue
		}
		in.AppendHistory(input)

		switch {
		case text == "/quit" || text == "/exit":
			return nil
		case text == "/reset":
			ctl.Reset()
			printed = 0
			open()
			continue
		case strings.HasPrefix(text, "/lang"):
			next, ok := i18n.Parse(strings.TrimSpace(strings.TrimPrefix(text, "/lang")))
			if !ok {
				fmt.Fprintln(out, errorStyle.Render("supported languages: en, bg"))
				continue
			}
			selector.Set(next)
			fmt.Fprintln(out, mutedStyle.Render("language: "+string(next)))
			continue
		}

		if !ctl.Submit(ctx, text) {
			fmt.Fprintln(out, errorStyle.Render("message not sent"))
			continue
		}
		fmt.Fprintln(out, mutedStyle.Render(ctl.Snapshot().Text.LoadingMessage))
		ctl.Wait()
		flush(true)
	}
}
