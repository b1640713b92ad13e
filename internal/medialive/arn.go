package medialive

import (
	"fmt"
	"regexp"
)

// channelARNPattern matches channel locators of the form
// arn:aws:medialive:<region>:<account>:channel:<id>. The grammar tracks the
// encoding service's naming convention and must be updated together with it.
var channelARNPattern = regexp.MustCompile(`^arn:aws:medialive:.*:.*:channel:(.*)$`)

// MalformedReferenceError reports a channel locator that does not match the
// expected ARN structure.
type MalformedReferenceError struct {
	ARN string
}

func (e *MalformedReferenceError) Error() string {
	return fmt.Sprintf("malformed channel reference %q", e.ARN)
}

// ParseChannelARN extracts the channel id from a channel ARN. The id is used
// verbatim in lookup calls, so a locator that does not match the documented
// grammar is rejected outright rather than salvaged.
func ParseChannelARN(arn string) (string, error) {
	matches := channelARNPattern.FindStringSubmatch(arn)
	if matches == nil {
		return "", &MalformedReferenceError{ARN: arn}
	}
	return matches[1], nil
}
