// Command generate_sample writes deterministic sample notes as NDJSON, for
// example: go run ./scripts | notemark note import --format json -
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/mithrel/notemark/pkg/api"
)

var tagPool = []string{"work", "home", "golang", "reading", "recipes", "travel", "ideas", "meetings", "health", "music"}

// snippets exercise the renderer: tasks, widgets, math and links.
var snippets = []string{
	"- [ ] follow up with %s\n- [x] send notes\n",
	"```mermaid\ngraph TD; A-->B; B-->C;\n```\n",
	"```mindmap\n# %s\n## first\n## second\n```\n",
	"Energy is $E = mc^2$ and the sum:\n\n$$\n\\sum_{i=1}^n i = \\frac{n(n+1)}{2}\n$$\n",
	"See https://go.dev/doc/effective_go and [the blog](https://go.dev/blog/).\n",
	"```go\nfunc main() { fmt.Println(%q) }\n```\n",
	"| item | qty |\n|------|-----|\n| %s | 2 |\n",
	"![diagram](https://example.com/%s.png)\n",
}

func main() {
	total := flag.Int("n", 200, "number of notes")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	r := rand.New(rand.NewSource(*seed))
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	enc := json.NewEncoder(os.Stdout)

	for i := 0; i < *total; i++ {
		tags := sampleTags(r, 1+r.Intn(3))
		created := base.Add(time.Duration(i*90+r.Intn(60)) * time.Minute)
		updated := created
		if r.Float64() < 0.3 {
			updated = created.Add(time.Duration(r.Intn(72)) * time.Hour)
		}

		var body strings.Builder
		fmt.Fprintf(&body, "Notes about %s #%s\n\n", tags[0], strings.Join(tags, " #"))
		for _, s := range pick(r, snippets, 1+r.Intn(2)) {
			if strings.Contains(s, "%") {
				s = fmt.Sprintf(s, tags[0])
			}
			body.WriteString(s)
			body.WriteString("\n")
		}

		e := api.Entry{
			Title:     fmt.Sprintf("Sample note %03d", i+1),
			Body:      body.String(),
			Tags:      tags,
			CreatedAt: created,
			UpdatedAt: updated,
		}
		if err := enc.Encode(e); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func sampleTags(r *rand.Rand, k int) []string {
	return pick(r, tagPool, k)
}

func pick(r *rand.Rand, from []string, k int) []string {
	idx := r.Perm(len(from))[:k]
	out := make([]string, 0, k)
	for _, i := range idx {
		out = append(out, from[i])
	}
	return out
}
