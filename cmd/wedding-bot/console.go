package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/prastut/wedding-jarvis-sub000/internal/broadcast"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
	"github.com/prastut/wedding-jarvis-sub000/internal/storage"
)

// console is the operator menu on stdin
type console struct {
	scanner    *bufio.Scanner
	out        io.Writer
	store      *storage.Storage
	broadcasts *broadcast.Service
}

func newConsole(in io.Reader, out io.Writer, store *storage.Storage, broadcasts *broadcast.Service) *console {
	return &console{
		scanner:    bufio.NewScanner(in),
		out:        out,
		store:      store,
		broadcasts: broadcasts,
	}
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) prompt(label string) (string, bool) {
	c.printf("%s", label)
	if !c.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.scanner.Text()), true
}

// run loops until exit is chosen, stdin closes or ctx is done
func (c *console) run(ctx context.Context) {
	for ctx.Err() == nil {
		c.printf("\nCommands:\n")
		c.printf("  1. List broadcasts\n")
		c.printf("  2. Send a broadcast\n")
		c.printf("  3. View all guests\n")
		c.printf("  4. View guests by RSVP\n")
		c.printf("  5. Exit\n")

		command, ok := c.prompt("\nEnter command (1-5): ")
		if !ok {
			return
		}
		switch command {
		case "1":
			c.listBroadcasts(ctx)
		case "2":
			c.sendBroadcast(ctx)
		case "3":
			c.listGuests(ctx, storage.GuestFilter{}, "All Guests")
		case "4":
			c.guestsByRSVP(ctx)
		case "5":
			c.printf("Exiting...\n")
			return
		default:
			c.printf("Invalid command. Please try again.\n")
		}
	}
}

func (c *console) listBroadcasts(ctx context.Context) {
	list, err := c.broadcasts.List(ctx)
	if err != nil {
		c.printf("❌ Error listing broadcasts: %v\n", err)
		return
	}
	if len(list) == 0 {
		c.printf("\nNo broadcasts found.\n")
		return
	}
	c.printf("\n📣 Broadcasts (%d total):\n", len(list))
	c.printf("%s\n", strings.Repeat("-", 60))
	for _, b := range list {
		c.printf("ID: %s\n", b.ID)
		c.printf("Topic: %s\n", b.Topic)
		c.printf("Status: %s (sent %d, failed %d)\n", b.Status, b.SentCount, b.FailedCount)
		c.printf("%s\n", strings.Repeat("-", 60))
	}
}

func (c *console) sendBroadcast(ctx context.Context) {
	id, ok := c.prompt("Enter broadcast id: ")
	if !ok || id == "" {
		return
	}
	if err := c.broadcasts.Send(ctx, id, nil); err != nil {
		c.printf("❌ Error sending broadcast: %v\n", err)
		return
	}
	c.printf("\nSending broadcast %s...\n", id)

	res, err := c.broadcasts.Wait(ctx, id)
	if err != nil {
		c.printf("❌ Broadcast failed: %v\n", err)
		return
	}
	c.printf("✅ Broadcast %s: %d sent, %d failed of %d\n", res.Status, res.Sent, res.Failed, res.Total)
	for _, e := range res.Errors {
		c.printf("   %s\n", e)
	}
}

func (c *console) guestsByRSVP(ctx context.Context) {
	c.printf("\nSelect RSVP status:\n")
	c.printf("  1. Unanswered\n")
	c.printf("  2. Attending\n")
	c.printf("  3. Not attending\n")

	choice, ok := c.prompt("Enter choice (1-3): ")
	if !ok {
		return
	}
	var status models.RSVPStatus
	switch choice {
	case "1":
		status = models.RSVPUnset
	case "2":
		status = models.RSVPAttending
	case "3":
		status = models.RSVPNotAttending
	default:
		c.printf("Invalid choice.\n")
		return
	}
	label := string(status)
	if label == "" {
		label = "unanswered"
	}
	c.listGuests(ctx, storage.GuestFilter{RSVP: &status}, fmt.Sprintf("Guests with RSVP '%s'", label))
}

func (c *console) listGuests(ctx context.Context, filter storage.GuestFilter, title string) {
	guests, err := c.store.ListGuests(ctx, filter)
	if err != nil {
		c.printf("❌ Error listing guests: %v\n", err)
		return
	}
	if len(guests) == 0 {
		c.printf("\nNo guests found.\n")
		return
	}

	c.printf("\n📋 %s (%d total):\n", title, len(guests))
	c.printf("%s\n", strings.Repeat("-", 60))
	for _, g := range guests {
		c.printf("Name: %s\n", g.Name)
		c.printf("Phone: %s\n", g.PhoneNumber)
		if g.Language != nil {
			c.printf("Language: %s\n", *g.Language)
		}
		if g.Side != nil {
			c.printf("Side: %s\n", *g.Side)
		}
		switch g.RSVPStatus {
		case models.RSVPAttending:
			c.printf("RSVP: attending (%s)\n", models.HeadCountLabel(*g.RSVPCount))
		case models.RSVPNotAttending:
			c.printf("RSVP: not attending\n")
		default:
			c.printf("RSVP: unanswered\n")
		}
		c.printf("Opted in: %t\n", g.OptedIn)
		c.printf("%s\n", strings.Repeat("-", 60))
	}
}
