package network

import (
	"fmt"
	"sort"
	"strings"
)

// AuthSuccessMarker appears in every successful [AUTH] reply
const AuthSuccessMarker = "successfully"

// Authentication prompts, sent in this order on every auth cycle
const (
	PromptChoice   = TagAuth + " Register or Login? (r/l):"
	PromptUsername = TagAuth + " Username:"
	PromptPassword = TagAuth + " Password:"
)

// StatePrefix starts the one frame whose body spans several lines
const StatePrefix = TagGame + ":" + ActionState + ":"

// StateLines is the number of text lines a STATE frame occupies
const StateLines = 3

// InviteKind names what an invitation is for
type InviteKind int

const (
	InviteDM InviteKind = iota
	InviteGroupChat
	InviteGame
)

func (k InviteKind) String() string {
	switch k {
	case InviteDM:
		return "DM"
	case InviteGroupChat:
		return "Group Chat"
	case InviteGame:
		return "Tic-Tac-Toe"
	default:
		return "unknown"
	}
}

// AuthReply formats a reply to the authentication exchange
func AuthReply(text string) string {
	return TagAuth + " " + text
}

// ServerNotice formats an informational line from the server
func ServerNotice(format string, args ...interface{}) string {
	return TagServer + " " + fmt.Sprintf(format, args...)
}

// ErrorNotice formats an error line for the sender of a bad unit
func ErrorNotice(text string) string {
	return TagError + " " + text
}

// FormatRoster renders the sorted list of online users
func FormatRoster(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return RosterPrefix + strings.Join(sorted, ", ")
}

// FormatChat renders a public chat line
func FormatChat(sender, text string) string {
	return sender + ": " + text
}

// FormatDirect renders a direct message for its recipients
func FormatDirect(sender, text string) string {
	return fmt.Sprintf("[DM from %s]: %s", sender, text)
}

// FormatInvite renders a DM or group chat invitation prompt
func FormatInvite(inviter string, kind InviteKind) string {
	return fmt.Sprintf("%s %s wants to start a %s chat with you. Accept? (yes/no):", TagInvite, inviter, kind)
}

func gameFrame(parts ...string) string {
	return TagGame + ":" + strings.Join(parts, ":")
}

// GameInvite tells the target that inviter wants to play
func GameInvite(inviter string) string {
	return gameFrame(ActionInvite, inviter)
}

// GameStart tells a player who the opponent is and which symbol they hold
func GameStart(opponent, symbol string) string {
	return gameFrame(ActionStart, opponent, symbol)
}

// GameState renders the grid and the player whose turn it is. The grid
// contributes embedded newlines, so the frame spans StateLines lines.
func GameState(grid, current string) string {
	return gameFrame(ActionState, grid, current)
}

// GameResult renders a terminal game outcome
func GameResult(text string) string {
	return gameFrame(ActionResult, text)
}

// GameError reports a rejected game action against opponent
func GameError(opponent, text string) string {
	return gameFrame(ActionError, opponent, text)
}

// FileUploadHeader renders the two header lines of a /file transfer
func FileUploadHeader(name string, size int64) []string {
	return []string{CmdFile, fmt.Sprintf("%s|%d", name, size)}
}

// FileAnnounceHeader renders the header line of a forwarded [FILE] transfer
func FileAnnounceHeader(name, sender string, size int64) string {
	return fmt.Sprintf("%s:%s:%s:%d", TagFile, name, sender, size)
}
