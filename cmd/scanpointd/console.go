package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"scanpoint/internal/framer"
	ledgermodels "scanpoint/internal/ledger/models"
	"scanpoint/internal/scanner"
)

// console renders the four core signals and translates operator input into
// commands. A plain line is a card scan (the reader types the identifier and
// presses enter); a line starting with '/' is an operator command.
type console struct {
	out io.Writer
}

func newConsole(out io.Writer) *console {
	return &console{out: out}
}

func (c *console) ScanResolved(displayName, groupLabel string) {
	fmt.Fprintf(c.out, "%s (%s) checked in\n", displayName, groupLabel)
}

func (c *console) UnknownCard(identifier string) {
	fmt.Fprintf(c.out, "unknown card %s: /register <name> <group> to add it, /decline to ignore\n", identifier)
}

func (c *console) RegistrationResult(err error) {
	if err != nil {
		fmt.Fprintf(c.out, "registration failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "card registered")
}

func (c *console) Error(kind scanner.ErrorKind, detail error) {
	fmt.Fprintf(c.out, "error (%s): %v\n", kind, detail)
}

func (c *console) run(ctx context.Context, svc *scanner.Service, in io.Reader, recentLimit int) {
	fmt.Fprintln(c.out, "scan a card, or type /help")

	lines := bufio.NewScanner(in)
	for lines.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := lines.Text()
		if strings.HasPrefix(line, "/") {
			if !c.command(ctx, svc, line, recentLimit) {
				return
			}
			continue
		}
		// play the line back as key events, terminator last
		for _, r := range line {
			svc.DeliverKeyEvent(ctx, framer.KeyEvent{Rune: r, Printable: true})
		}
		svc.DeliverKeyEvent(ctx, framer.KeyEvent{Terminator: true})
	}
}

// command handles one operator line; returns false to quit.
func (c *console) command(ctx context.Context, svc *scanner.Service, line string, recentLimit int) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/help":
		c.help()
	case "/register":
		if len(fields) < 3 {
			fmt.Fprintln(c.out, "usage: /register <name...> <group>")
			return true
		}
		identifier, pending := svc.PendingIdentifier()
		if !pending {
			fmt.Fprintln(c.out, "no card awaiting registration; scan it first")
			return true
		}
		name := strings.Join(fields[1:len(fields)-1], " ")
		group := fields[len(fields)-1]
		// outcome is rendered by RegistrationResult
		_ = svc.SubmitRegistration(ctx, identifier, name, group)
	case "/decline":
		svc.DeclineRegistration()
		fmt.Fprintln(c.out, "registration declined")
	case "/users":
		identities, err := svc.Identities(ctx)
		if err != nil {
			c.Error(scanner.Classify(err), err)
			return true
		}
		for _, identity := range identities {
			fmt.Fprintf(c.out, "%s\t%s\t%s\n", identity.Identifier, identity.DisplayName, identity.GroupLabel)
		}
		if n, err := svc.IdentityCount(ctx); err == nil {
			fmt.Fprintf(c.out, "%d registered\n", n)
		}
	case "/recent":
		limit := recentLimit
		if len(fields) > 1 {
			if n, err := strconv.Atoi(fields[1]); err == nil {
				limit = n
			}
		}
		entries, err := svc.Recent(ctx, limit)
		if err != nil {
			c.Error(scanner.Classify(err), err)
			return true
		}
		for _, entry := range entries {
			fmt.Fprintf(c.out, "%s\t%s\t%s\n", entry.Identifier, entry.DisplayName,
				entry.Timestamp.Format(ledgermodels.TimestampLayout))
		}
	case "/stats":
		rows, err := svc.Counts(ctx)
		if err != nil {
			c.Error(scanner.Classify(err), err)
			return true
		}
		for _, row := range rows {
			fmt.Fprintf(c.out, "%s\t%s\t%d\n", row.DisplayName, row.GroupLabel, row.Count)
		}
	case "/delete":
		if len(fields) != 2 {
			fmt.Fprintln(c.out, "usage: /delete <identifier>")
			return true
		}
		if err := svc.RequestDelete(ctx, fields[1]); err != nil {
			c.Error(scanner.Classify(err), err)
			return true
		}
		fmt.Fprintln(c.out, "deleted")
	case "/import":
		if len(fields) != 2 {
			fmt.Fprintln(c.out, "usage: /import <path>")
			return true
		}
		report, err := svc.RequestImport(ctx, fields[1])
		if err != nil {
			c.Error(scanner.Classify(err), err)
			return true
		}
		fmt.Fprintf(c.out, "imported %d, skipped %d duplicates, %d malformed\n",
			report.Imported, report.SkippedDuplicates, report.SkippedMalformed)
	case "/export":
		if len(fields) != 2 {
			fmt.Fprintln(c.out, "usage: /export <path>")
			return true
		}
		if err := svc.RequestExport(ctx, fields[1]); err != nil {
			c.Error(scanner.Classify(err), err)
			return true
		}
		fmt.Fprintln(c.out, "exported")
	case "/clear-registry":
		if err := svc.RequestClearRegistry(ctx); err != nil {
			c.Error(scanner.Classify(err), err)
			return true
		}
		fmt.Fprintln(c.out, "registry cleared")
	case "/clear-ledger":
		if err := svc.RequestClearLedger(ctx); err != nil {
			c.Error(scanner.Classify(err), err)
			return true
		}
		fmt.Fprintln(c.out, "ledger cleared")
	case "/clear-mirror":
		if err := svc.RequestClearMirror(); err != nil {
			c.Error(scanner.Classify(err), err)
			return true
		}
		fmt.Fprintln(c.out, "mirror cleared")
	case "/quit":
		return false
	default:
		fmt.Fprintf(c.out, "unknown command %s, try /help\n", fields[0])
	}
	return true
}

func (c *console) help() {
	fmt.Fprint(c.out, `scan: type the card identifier and press enter
/register <name...> <group>   register the card awaiting registration
/decline                      dismiss the card awaiting registration
/users                        list registered identities
/recent [n]                   latest scans, newest first
/stats                        scans per identity
/delete <identifier>          remove an identity (history kept)
/import <path>                import identities from a roster CSV
/export <path>                export identities and scans to a snapshot CSV
/clear-registry               remove all identities
/clear-ledger                 remove all scan events
/clear-mirror                 truncate the mirror file
/quit
`)
}
