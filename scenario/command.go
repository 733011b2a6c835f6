package scenario

import (
	"fmt"
	"strings"
)

type Command int

const (
	CMD_ESTABLISH Command = iota
	CMD_PAY
	CMD_PAY_ALL
	CMD_CLOSE
	CMD_MUTUAL_CLOSE
	CMD_EXPIRE
	CMD_STORE
	CMD_RESTORE
)

var commandNames = map[Command]string{
	CMD_ESTABLISH:    "establish",
	CMD_PAY:          "pay",
	CMD_PAY_ALL:      "pay_all",
	CMD_CLOSE:        "close",
	CMD_MUTUAL_CLOSE: "mutual_close",
	CMD_EXPIRE:       "expire",
	CMD_STORE:        "store",
	CMD_RESTORE:      "restore",
}

// CommandHelp describes the commands for the cli usage text.
var CommandHelp = []struct {
	Command     Command
	Description string
}{
	{CMD_ESTABLISH, "creates a new zkChannel"},
	{CMD_PAY, "pays the merchant a random amount (at most spending half the remaining balance)"},
	{CMD_PAY_ALL, "pays the merchant the full remaining balance in the channel"},
	{CMD_CLOSE, "performs a customer-initiated unilateral close on the channel"},
	{CMD_MUTUAL_CLOSE, "performs a cooperative close on the channel"},
	{CMD_EXPIRE, "performs a merchant-initiated expiry of the channel"},
	{CMD_STORE, "saves the customer db files in a channel-specific directory"},
	{CMD_RESTORE, "restores the customer db files saved during 'store', overwriting the existing customer db"},
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// UnknownCommandError is a configuration error: the command list
// contains a token that is not a command.
type UnknownCommandError struct {
	Token string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("%s not a recognized command", e.Token)
}

func ParseCommand(token string) (Command, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	for cmd, name := range commandNames {
		if name == t {
			return cmd, nil
		}
	}
	return 0, &UnknownCommandError{Token: token}
}

// ParseCommands parses a whole command list. A single unknown token
// rejects the list.
func ParseCommands(tokens []string) ([]Command, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty command list")
	}
	cmds := make([]Command, 0, len(tokens))
	for _, t := range tokens {
		cmd, err := ParseCommand(t)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func FormatCommands(cmds []Command) string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}
