package internal

import "strconv"

// State is the lifecycle state of the connection of a [Client].
type State uint8

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateInExchange
	StateClosed
)

var stateNames = [...]string{
	StateIdle:       "Idle",
	StateConnecting: "Connecting",
	StateOpen:       "Open",
	StateInExchange: "InExchange",
	StateClosed:     "Closed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}
