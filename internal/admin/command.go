package admin

import (
	"strings"

	"github.com/spf13/cast"
)

type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdStatus
	CmdRefresh
	CmdPostNow
	CmdLogTail
	CmdAudit
)

// Command is a parsed admin-channel instruction. Parsing happens once at
// the boundary; dispatch never re-tokenizes the raw text.
type Command struct {
	Kind CommandKind
	// Lines is the tail length for CmdLogTail.
	Lines int
	// Identity and Date are the CmdAudit subject.
	Identity int64
	Date     string
	Raw      string
}

const defaultLogTail = 50

// Parse recognizes one command per message. Anything unrecognized comes
// back as CmdUnknown with the raw text preserved for the error reply.
func Parse(text string) Command {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "!") {
		return Command{Kind: CmdUnknown, Raw: text}
	}

	switch strings.ToLower(fields[0]) {
	case "!status":
		return Command{Kind: CmdStatus, Raw: text}
	case "!refresh":
		return Command{Kind: CmdRefresh, Raw: text}
	case "!post":
		return Command{Kind: CmdPostNow, Raw: text}
	case "!log":
		lines := defaultLogTail
		if len(fields) > 1 {
			if n := cast.ToInt(fields[1]); n > 0 {
				lines = n
			}
		}
		return Command{Kind: CmdLogTail, Lines: lines, Raw: text}
	case "!audit":
		if len(fields) < 3 {
			return Command{Kind: CmdUnknown, Raw: text}
		}
		id := cast.ToInt64(fields[1])
		if id == 0 {
			return Command{Kind: CmdUnknown, Raw: text}
		}
		return Command{Kind: CmdAudit, Identity: id, Date: fields[2], Raw: text}
	default:
		return Command{Kind: CmdUnknown, Raw: text}
	}
}
