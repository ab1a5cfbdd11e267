// rulecheck classifies text against the spam rule catalog from the command
// line, for rule development and incident triage:
//
//	rulecheck "some message text"
//	echo "some message text" | rulecheck
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/guardbot/antispam/internal/moderation"
)

func main() {
	text := strings.Join(os.Args[1:], " ")
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("read stdin: %v", err)
		}
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		fmt.Fprintln(os.Stderr, "usage: rulecheck <text>  (or pipe text on stdin)")
		os.Exit(2)
	}

	classifier := moderation.NewClassifier(moderation.BuildCatalog())
	sig, spam := classifier.Explain(text)
	if !spam {
		fmt.Println("CLEAN")
		return
	}

	fmt.Printf("SPAM category=%s kind=%s rule=%q\n", sig.Category, sig.Kind, sig.Source)
	os.Exit(1)
}
