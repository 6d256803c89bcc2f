// Package client implements the terminal chat client: TLS connection,
// interactive authentication, commands and file reception
package client

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"chat-relay/internal/game"
)

// Display renders server traffic for a terminal
type Display struct {
	out          io.Writer
	serverColor  *color.Color
	chatColor    *color.Color
	dmColor      *color.Color
	inviteColor  *color.Color
	gameColor    *color.Color
	fileColor    *color.Color
	winColor     *color.Color
	loseColor    *color.Color
	warningColor *color.Color
	errorColor   *color.Color
	infoColor    *color.Color
	xColor       *color.Color
	oColor       *color.Color
}

// NewDisplay creates a display writing to out with configured colors
func NewDisplay(out io.Writer) *Display {
	return &Display{
		out:          out,
		serverColor:  color.New(color.FgCyan, color.Bold),
		chatColor:    color.New(color.FgWhite),
		dmColor:      color.New(color.FgMagenta, color.Bold),
		inviteColor:  color.New(color.FgYellow, color.Bold),
		gameColor:    color.New(color.FgYellow),
		fileColor:    color.New(color.FgBlue, color.Bold),
		winColor:     color.New(color.FgGreen, color.Bold, color.BgBlack),
		loseColor:    color.New(color.FgRed, color.Bold, color.BgBlack),
		warningColor: color.New(color.FgYellow),
		errorColor:   color.New(color.FgRed, color.Bold),
		infoColor:    color.New(color.FgWhite),
		xColor:       color.New(color.FgCyan, color.Bold),
		oColor:       color.New(color.FgMagenta, color.Bold),
	}
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// PrintBanner displays the client banner
func (d *Display) PrintBanner() {
	banner := `
╔═══════════════════════════════════════╗
║            CHAT RELAY CLIENT          ║
║     chat · files · tic-tac-toe        ║
╚═══════════════════════════════════════╝
`
	d.serverColor.Fprintln(d.out, banner)
}

// PrintServerStatus displays a line from the server
func (d *Display) PrintServerStatus(message string) {
	d.serverColor.Fprintf(d.out, "[%s] %s\n", timestamp(), message)
}

// PrintChat displays a public chat or channel line
func (d *Display) PrintChat(message string) {
	d.chatColor.Fprintf(d.out, "[%s] %s\n", timestamp(), message)
}

// PrintDirect displays a direct message
func (d *Display) PrintDirect(message string) {
	d.dmColor.Fprintf(d.out, "[%s] %s\n", timestamp(), message)
}

// PrintInvite displays an invitation and how to answer it
func (d *Display) PrintInvite(message, hint string) {
	d.inviteColor.Fprintf(d.out, "[%s] %s\n", timestamp(), message)
	d.infoColor.Fprintf(d.out, "    %s\n", hint)
}

// PrintRoster displays the online users
func (d *Display) PrintRoster(names []string) {
	d.serverColor.Fprintf(d.out, "[%s] Online (%d): %s\n", timestamp(), len(names), strings.Join(names, ", "))
}

// PrintGameStart announces a new game
func (d *Display) PrintGameStart(opponent, symbol string) {
	d.gameColor.Fprintf(d.out, "[%s] [TIC-TAC-TOE] Game with %s started, you play %s\n", timestamp(), opponent, symbol)
}

// PrintBoard draws the grid and whose turn it is
func (d *Display) PrintBoard(grid game.Grid, current, me string) {
	d.gameColor.Fprintln(d.out, "      0   1   2")
	for r := range grid {
		fmt.Fprintf(d.out, "  %d  ", r)
		for c := range grid[r] {
			switch grid[r][c] {
			case game.X:
				d.xColor.Fprint(d.out, " X ")
			case game.O:
				d.oColor.Fprint(d.out, " O ")
			default:
				fmt.Fprint(d.out, "   ")
			}
			if c < game.Size-1 {
				fmt.Fprint(d.out, "|")
			}
		}
		fmt.Fprintln(d.out)
		if r < game.Size-1 {
			fmt.Fprintln(d.out, "     ---+---+---")
		}
	}

	if current == me {
		d.gameColor.Fprintln(d.out, "  Your turn: /move <opponent> <row> <col>")
	} else {
		d.infoColor.Fprintf(d.out, "  Waiting for %s\n", current)
	}
}

// PrintGameEnd displays a terminal game result
func (d *Display) PrintGameEnd(result string) {
	switch {
	case result == "You win!":
		d.winColor.Fprintf(d.out, "🏆 %s 🏆\n", result)
	case result == "Draw!":
		d.gameColor.Fprintf(d.out, "🤝 %s\n", result)
	default:
		d.loseColor.Fprintf(d.out, "%s\n", result)
	}
}

// PrintFileReceived reports a saved download
func (d *Display) PrintFileReceived(name, sender, path string, size int64) {
	from := ""
	if sender != "" {
		from = " from " + sender
	}
	d.fileColor.Fprintf(d.out, "[%s] 📁 Received %s (%d bytes)%s -> %s\n", timestamp(), name, size, from, path)
}

// PrintError displays error messages
func (d *Display) PrintError(message string) {
	d.errorColor.Fprintf(d.out, "❌ ERROR: %s\n", message)
}

// PrintWarning displays warning messages
func (d *Display) PrintWarning(message string) {
	d.warningColor.Fprintf(d.out, "⚠️  WARNING: %s\n", message)
}

// PrintInfo displays informational messages
func (d *Display) PrintInfo(message string) {
	d.infoColor.Fprintf(d.out, "ℹ️  %s\n", message)
}

// PrintPrompt shows a prompt without a trailing newline
func (d *Display) PrintPrompt(prompt string) {
	d.serverColor.Fprint(d.out, prompt+" ")
}

// PrintSeparator displays a visual separator
func (d *Display) PrintSeparator() {
	fmt.Fprintln(d.out, strings.Repeat("═", 50))
}

// PrintHelp lists the client commands
func (d *Display) PrintHelp() {
	d.PrintSeparator()
	d.infoColor.Fprint(d.out, `Commands:
  <text>                      chat with everyone
  /to <user,user> <text>      direct message
  /dm <user>                  invite to a DM chat
  /gc <user> [user...]        invite to a group chat
  /yes <user>, /no <user>     answer a chat invitation
  /play <user>                invite to Tic-Tac-Toe
  /accept <user>, /reject <user>
  /move <opponent> <row> <col>
  /sendfile <path>            send a file to everyone
  /help                       show this list
  /quit                       leave
`)
	d.PrintSeparator()
}
