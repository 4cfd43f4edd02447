package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteCookieGuide writes step by step instructions for copying the session
// cookies out of a logged in browser.
func WriteCookieGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	lines := []string{
		rule,
		"FUR AFFINITY SESSION COOKIES",
		rule,
		"",
		"fascraper signs in with the two cookies your browser already holds.",
		"",
		"1. Log in at https://www.furaffinity.net in your browser.",
		"2. Open the developer tools (F12, or Cmd+Option+I on a Mac).",
		"3. Chrome/Edge: Application tab > Cookies > https://www.furaffinity.net",
		"   Firefox:     Storage tab > Cookies > https://www.furaffinity.net",
		"4. Copy the Value column of these two rows:",
		"",
		"     a   a UUID such as 1b2c3d4e-5f60-7182-93a4-b5c6d7e8f901",
		"     b   a second UUID of the same shape",
		"",
		"5. Run `fascraper auth login` and paste each value when asked.",
		"",
		"Notes:",
		"  * Copy only the value, without quotes or a trailing semicolon.",
		"  * Logging out in the browser invalidates both cookies.",
		"  * Mature content is only listed if the account allows it in its settings.",
		"",
		"The cookies grant full access to the account. Never share them.",
		"They are kept in the system keychain, or in an encrypted file when no",
		"keychain is available.",
		rule,
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

// WriteQuickGuide writes a one-line reminder of where the cookies live
func WriteQuickGuide(w io.Writer) {
	fmt.Fprintln(w, "Cookies: F12 > Application/Storage > Cookies > furaffinity.net, copy the values of \"a\" and \"b\".")
	fmt.Fprintln(w, "Run `fascraper auth guide` for detailed instructions.")
}
