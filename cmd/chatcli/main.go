package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"chatproxy-backend/internal/client"
	"chatproxy-backend/internal/models"
)

type stdoutNotifier struct{}

func (stdoutNotifier) Notify(message string) {
	fmt.Printf("! %s\n", message)
}

func main() {
	godotenv.Load()

	baseURL := flag.String("url", envOr("CHAT_API_URL", "http://localhost:8080"), "chat backend base URL")
	token := flag.String("token", os.Getenv("CHAT_TOKEN"), "bearer token for the signed-in user")
	timeout := flag.Duration("timeout", 90*time.Second, "per-request timeout")
	flag.Parse()

	api := client.NewAPI(*baseURL, *token, *timeout)
	if !api.HasToken() {
		fmt.Println("No token set. Use -token or CHAT_TOKEN (see cmd/devtoken).")
		os.Exit(1)
	}

	state := client.NewAppState(api, stdoutNotifier{})
	ctx := context.Background()

	if _, _, err := state.LoadChats(ctx); err != nil {
		os.Exit(1)
	}

	fmt.Println("Welcome to chat CLI. Commands: /list, /new, /select N, /history, /quit")
	printSelected(state)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			fmt.Println("Goodbye!")
			return
		case line == "/list":
			printChats(state)
		case line == "/new":
			if err := state.CreateNewChat(ctx); err == nil {
				printSelected(state)
			}
		case line == "/history":
			printHistory(state)
		case strings.HasPrefix(line, "/select"):
			selectChat(state, strings.TrimSpace(strings.TrimPrefix(line, "/select")))
		case strings.HasPrefix(line, "/"):
			fmt.Println("Unknown command")
		default:
			sendMessage(ctx, state, line)
		}
	}
}

func sendMessage(ctx context.Context, state *client.AppState, prompt string) {
	selected := state.Selected()
	if selected == nil {
		fmt.Println("No chat selected")
		return
	}

	fmt.Println("...")
	reply, err := state.SendMessage(ctx, selected.ID.String(), prompt)
	if err != nil {
		return
	}
	fmt.Printf("assistant: %s\n", reply.Content)
}

func selectChat(state *client.AppState, arg string) {
	n, err := strconv.Atoi(arg)
	chats := state.Chats()
	if err != nil || n < 1 || n > len(chats) {
		fmt.Printf("Pick a number between 1 and %d\n", len(chats))
		return
	}
	if err := state.Select(chats[n-1].ID); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printSelected(state)
}

func printChats(state *client.AppState) {
	selected := state.Selected()
	for i, c := range state.Chats() {
		marker := " "
		if selected != nil && selected.ID == c.ID {
			marker = "*"
		}
		fmt.Printf("%s %d. %s (%d messages, updated %s)\n",
			marker, i+1, c.Name, len(c.Messages), c.UpdatedAt.Local().Format(time.DateTime))
	}
}

func printSelected(state *client.AppState) {
	if c := state.Selected(); c != nil {
		fmt.Printf("Current chat: %s\n", c.Name)
	}
}

func printHistory(state *client.AppState) {
	c := state.Selected()
	if c == nil {
		return
	}
	for _, m := range c.Messages {
		fmt.Printf("[%s] %s: %s\n", time.UnixMilli(m.Timestamp).Local().Format(time.TimeOnly), roleLabel(m.Role), m.Content)
	}
}

func roleLabel(role string) string {
	if role == models.RoleUser {
		return "you"
	}
	return role
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
