// Package network defines the relay wire protocol: unit classification, frame
// formatting and the text/binary framing reader.
package network

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind classifies one client-to-server unit
type Kind int

const (
	KindMalformed Kind = iota
	KindEmpty
	KindDMRequest
	KindGCRequest
	KindInviteReply
	KindGameRequest
	KindGameAccept
	KindGameReject
	KindGameMove
	KindFileUpload
	KindFileAnnounce
	KindDirect
	KindChannel
	KindLogout
	KindChat
)

var kindNames = map[Kind]string{
	KindMalformed:    "MALFORMED",
	KindEmpty:        "EMPTY",
	KindDMRequest:    "DM_REQUEST",
	KindGCRequest:    "GC_REQUEST",
	KindInviteReply:  "INVITE_REPLY",
	KindGameRequest:  "GAME_REQUEST",
	KindGameAccept:   "GAME_ACCEPT",
	KindGameReject:   "GAME_REJECT",
	KindGameMove:     "GAME_MOVE",
	KindFileUpload:   "FILE_UPLOAD",
	KindFileAnnounce: "FILE_ANNOUNCE",
	KindDirect:       "DIRECT",
	KindChannel:      "CHANNEL",
	KindLogout:       "LOGOUT",
	KindChat:         "CHAT",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// Tags and command prefixes
const (
	TagDMRequest   = "[DM_REQUEST]"
	TagGCRequest   = "[GC_REQUEST]"
	TagInviteReply = "[INVITE_REPLY]"
	TagInvite      = "[INVITE]"
	TagGame        = "[TIC_TAC_TOE]"
	TagFile        = "[FILE]"
	TagLogout      = "[LOGOUT]"
	TagServer      = "[SERVER]"
	TagError       = "[ERROR]"
	TagAuth        = "[AUTH]"

	CmdFile = "/file"
	CmdTo   = "/to:"
	CmdExit = "/exit"

	RosterPrefix = "ACTIVE USERS: "
)

// Game actions carried after the [TIC_TAC_TOE] tag
const (
	ActionRequest = "REQUEST"
	ActionInvite  = "INVITE"
	ActionAccept  = "ACCEPT"
	ActionReject  = "REJECT"
	ActionStart   = "START"
	ActionMove    = "MOVE"
	ActionState   = "STATE"
	ActionResult  = "RESULT"
	ActionError   = "ERROR"
)

// ErrMalformedUnit is returned for control lines that cannot be classified
var ErrMalformedUnit = errors.New("malformed unit")

var channelPattern = regexp.MustCompile(`^\[([^\[\]]+)_MSG\]:`)

// Unit is one classified client-to-server protocol unit
type Unit struct {
	Kind Kind
	Raw  string

	// Target is the DM target, the game opponent or the inviter being answered
	Target  string
	Targets []string
	Accept  bool

	Row int
	Col int

	Text    string
	Channel string

	FileName string
	FileSize int64

	// Err explains why a unit is KindMalformed
	Err error
}

func malformed(raw, format string, args ...interface{}) Unit {
	return Unit{
		Kind: KindMalformed,
		Raw:  raw,
		Err:  fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrMalformedUnit),
	}
}

// Parse classifies one text line (without its terminator) into a Unit.
// Lines that carry a known tag but the wrong shape are KindMalformed; any
// other text is KindChat.
func Parse(line string) Unit {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(line)

	switch {
	case trimmed == "":
		return Unit{Kind: KindEmpty, Raw: line}
	case trimmed == TagLogout || trimmed == CmdExit:
		return Unit{Kind: KindLogout, Raw: line}
	case trimmed == CmdFile:
		return Unit{Kind: KindFileUpload, Raw: line}
	case strings.HasPrefix(trimmed, TagDMRequest):
		return parseDMRequest(trimmed)
	case strings.HasPrefix(trimmed, TagGCRequest):
		return parseGCRequest(trimmed)
	case strings.HasPrefix(trimmed, TagInviteReply):
		return parseInviteReply(trimmed)
	case strings.HasPrefix(trimmed, TagGame):
		return parseGame(trimmed)
	case strings.HasPrefix(trimmed, TagFile):
		return parseFileAnnounce(trimmed)
	case strings.HasPrefix(trimmed, CmdTo):
		return parseDirect(line)
	case channelPattern.MatchString(line):
		m := channelPattern.FindStringSubmatch(line)
		return Unit{
			Kind:    KindChannel,
			Raw:     line,
			Channel: m[1],
			Text:    line[len(m[0]):],
		}
	default:
		return Unit{Kind: KindChat, Raw: line, Text: line}
	}
}

// fields splits the part after "<tag>:" on ':'
func fields(line, tag string) ([]string, bool) {
	rest := strings.TrimPrefix(line, tag)
	if !strings.HasPrefix(rest, ":") {
		return nil, false
	}
	return strings.Split(rest[1:], ":"), true
}

func parseDMRequest(line string) Unit {
	parts, ok := fields(line, TagDMRequest)
	if !ok || len(parts) != 1 || strings.TrimSpace(parts[0]) == "" {
		return malformed(line, "expected %s:<target>", TagDMRequest)
	}
	return Unit{Kind: KindDMRequest, Raw: line, Target: strings.TrimSpace(parts[0])}
}

func parseGCRequest(line string) Unit {
	parts, ok := fields(line, TagGCRequest)
	if !ok {
		return malformed(line, "expected %s:<user>:<user>...", TagGCRequest)
	}
	targets := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			targets = append(targets, p)
		}
	}
	if len(targets) == 0 {
		return malformed(line, "%s names no users", TagGCRequest)
	}
	return Unit{Kind: KindGCRequest, Raw: line, Targets: targets}
}

func parseInviteReply(line string) Unit {
	parts, ok := fields(line, TagInviteReply)
	if !ok || len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
		return malformed(line, "expected %s:<inviter>:<yes|no>", TagInviteReply)
	}
	var accept bool
	switch strings.ToLower(strings.TrimSpace(parts[1])) {
	case "yes":
		accept = true
	case "no":
		accept = false
	default:
		return malformed(line, "invite reply must be yes or no")
	}
	return Unit{Kind: KindInviteReply, Raw: line, Target: strings.TrimSpace(parts[0]), Accept: accept}
}

func parseGame(line string) Unit {
	parts, ok := fields(line, TagGame)
	if !ok || len(parts) < 2 {
		return malformed(line, "expected %s:<action>:<user>", TagGame)
	}
	action, user := parts[0], strings.TrimSpace(parts[1])
	if user == "" {
		return malformed(line, "%s %s names no user", TagGame, action)
	}

	switch action {
	case ActionRequest, ActionAccept, ActionReject:
		if len(parts) != 2 {
			return malformed(line, "expected %s:%s:<user>", TagGame, action)
		}
		kind := map[string]Kind{
			ActionRequest: KindGameRequest,
			ActionAccept:  KindGameAccept,
			ActionReject:  KindGameReject,
		}[action]
		return Unit{Kind: kind, Raw: line, Target: user}
	case ActionMove:
		if len(parts) != 4 {
			return malformed(line, "expected %s:MOVE:<opponent>:<row>:<col>", TagGame)
		}
		row, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return malformed(line, "row %q is not a number", parts[2])
		}
		col, err := strconv.Atoi(strings.TrimSpace(parts[3]))
		if err != nil {
			return malformed(line, "col %q is not a number", parts[3])
		}
		return Unit{Kind: KindGameMove, Raw: line, Target: user, Row: row, Col: col}
	default:
		return malformed(line, "unknown game action %q", action)
	}
}

func parseFileAnnounce(line string) Unit {
	parts, ok := fields(line, TagFile)
	if !ok || len(parts) < 2 {
		return malformed(line, "expected %s:<filename>:<size>", TagFile)
	}
	name := strings.Join(parts[:len(parts)-1], ":")
	size, err := parseSize(parts[len(parts)-1])
	if err != nil {
		return malformed(line, "%v", err)
	}
	if strings.TrimSpace(name) == "" {
		return malformed(line, "file name is empty")
	}
	return Unit{Kind: KindFileAnnounce, Raw: line, FileName: name, FileSize: size}
}

func parseDirect(line string) Unit {
	rest := strings.TrimPrefix(strings.TrimLeft(line, " \t"), CmdTo)
	targetList, text, ok := strings.Cut(rest, "|")
	if !ok {
		return malformed(line, "expected %s<user,user>|<text>", CmdTo)
	}
	var targets []string
	for _, t := range strings.Split(targetList, ",") {
		if t = strings.TrimSpace(t); t != "" {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		return malformed(line, "%s names no users", CmdTo)
	}
	return Unit{Kind: KindDirect, Raw: line, Targets: targets, Text: text}
}

// ParseFileMeta parses the "<filename>|<size>" line that follows /file
func ParseFileMeta(line string) (string, int64, error) {
	line = strings.TrimRight(line, "\r\n")
	idx := strings.LastIndex(line, "|")
	if idx < 0 {
		return "", 0, fmt.Errorf("expected <filename>|<size>: %w", ErrMalformedUnit)
	}
	name := line[:idx]
	if strings.TrimSpace(name) == "" {
		return "", 0, fmt.Errorf("file name is empty: %w", ErrMalformedUnit)
	}
	size, err := parseSize(line[idx+1:])
	if err != nil {
		return "", 0, err
	}
	return name, size, nil
}

func parseSize(s string) (int64, error) {
	size, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("size %q is not a number: %w", s, ErrMalformedUnit)
	}
	if size <= 0 {
		return 0, fmt.Errorf("size must be positive, got %d: %w", size, ErrMalformedUnit)
	}
	return size, nil
}
