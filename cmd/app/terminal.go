package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PhiFever/pantryscan/internal/logger"
	"github.com/PhiFever/pantryscan/internal/pantry"
	"github.com/PhiFever/pantryscan/internal/ui"
	"github.com/PhiFever/pantryscan/pkg/utils"
)

// terminal is the command loop standing in for the scan screen.
type terminal struct {
	lines  <-chan string
	view   *ui.ScanView
	client *pantry.Client
}

func (t *terminal) run(ctx context.Context) {
	for {
		line, ok := t.read(ctx)
		if !ok {
			return
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			t.scan(ctx)
		case "l", "list":
			t.list(ctx)
		case "q", "quit", "exit":
			return
		default:
			fmt.Println("Press Enter to scan, 'l' to list items, 'q' to quit.")
		}
	}
}

func (t *terminal) read(ctx context.Context) (string, bool) {
	select {
	case line, ok := <-t.lines:
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}

func (t *terminal) ask(ctx context.Context, label, current string) (string, bool) {
	fmt.Printf("%s [%s]: ", label, current)
	line, ok := t.read(ctx)
	if !ok {
		return "", false
	}
	if line = strings.TrimSpace(line); line == "" {
		return current, true
	}
	return line, true
}

func (t *terminal) scan(ctx context.Context) {
	if !t.view.Model().IsRunning() {
		if msg, ok := t.view.Model().ErrorMessage(); ok {
			fmt.Println(msg)
		}
	}

	forms := make(chan *ui.ItemForm, 1)
	if !t.view.Scan(ctx, func(f *ui.ItemForm) { forms <- f }) {
		return
	}
	fmt.Println("Scanning...")

	var form *ui.ItemForm
	select {
	case form = <-forms:
	case <-ctx.Done():
		return
	}

	if !t.fill(ctx, form) {
		return
	}

	item, err := form.ToNewItem()
	if err != nil {
		fmt.Printf("Item not saved: %v\n", err)
		return
	}

	created, err := t.client.Create(ctx, item)
	if err != nil {
		logger.Warningf("[Pantry] %v", err)
		fmt.Printf("Could not save item: %v\n", err)
		return
	}
	fmt.Printf("Saved #%d %s (%d %s, expires %s)\n", created.ID, created.Name, created.Quantity, created.Unit, created.ExpiryDate)
}

// fill lets the user edit the pre-filled form. It returns false when input
// ended.
func (t *terminal) fill(ctx context.Context, form *ui.ItemForm) bool {
	name, ok := t.ask(ctx, "Name", form.Name)
	if !ok {
		return false
	}
	form.Name = name

	for {
		qty, ok := t.ask(ctx, "Quantity", strconv.Itoa(form.Quantity))
		if !ok {
			return false
		}
		n, err := strconv.Atoi(qty)
		if err == nil {
			form.Quantity = n
			break
		}
		fmt.Println("Quantity must be a whole number.")
	}

	unit, ok := t.ask(ctx, "Unit", form.Unit)
	if !ok {
		return false
	}
	form.Unit = unit

	for {
		expiry, ok := t.ask(ctx, "Expiry date", form.Expiry.Format(utils.ExpiryLayout))
		if !ok {
			return false
		}
		d, err := time.ParseInLocation(utils.ExpiryLayout, expiry, time.Local)
		if err == nil {
			form.Expiry = d
			break
		}
		fmt.Println("Expiry date must look like 2026-01-31.")
	}
	return true
}

func (t *terminal) list(ctx context.Context) {
	items, err := t.client.List(ctx)
	if err != nil {
		fmt.Printf("Could not load items: %v\n", err)
		return
	}
	if len(items) == 0 {
		fmt.Println("Pantry is empty.")
		return
	}
	for _, it := range items {
		fmt.Printf("#%d %-24s %3d %-6s %s\n", it.ID, it.Name, it.Quantity, it.Unit, it.ExpiryDate)
	}
}
