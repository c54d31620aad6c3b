package markdown

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ErrTaskNotFound is returned when a task index is outside the document.
var ErrTaskNotFound = errors.New("task not found")

const taskIndexAttr = "data-task-index"

// listItemRenderer renders list items as editable items. Task items are
// numbered in document order; the number is what ToggleTask takes.
type listItemRenderer struct{}

func (r *listItemRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindListItem, r.renderListItem)
	reg.Register(extast.KindTaskCheckBox, r.renderCheckBox)
}

func (r *listItemRenderer) renderListItem(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</li>\n")
		return ast.WalkContinue, nil
	}
	idx := -1
	if isTaskItem(n) {
		idx = stateOf(n).nextTask()
		n.SetAttributeString(taskIndexAttr, []byte(strconv.Itoa(idx)))
	}
	_, _ = w.WriteString(`<li class="list-item`)
	if idx >= 0 {
		_, _ = w.WriteString(` task-item" ` + taskIndexAttr + `="` + strconv.Itoa(idx))
	}
	_, _ = w.WriteString(`">`)
	if fc := n.FirstChild(); fc != nil {
		if _, ok := fc.(*ast.TextBlock); !ok {
			_ = w.WriteByte('\n')
		}
	}
	return ast.WalkContinue, nil
}

func (r *listItemRenderer) renderCheckBox(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*extast.TaskCheckBox)
	st := stateOf(n)
	_, _ = w.WriteString(`<input type="checkbox" class="task-checkbox"`)
	if idx := taskIndexOf(n); idx >= 0 {
		_, _ = w.WriteString(` ` + taskIndexAttr + `="` + strconv.Itoa(idx) + `"`)
		if st.toggleURL != nil {
			_, _ = w.WriteString(` data-toggle-url="`)
			_, _ = w.Write(util.EscapeHTML([]byte(st.toggleURL(idx))))
			_ = w.WriteByte('"')
		}
	}
	if n.IsChecked {
		_, _ = w.WriteString(` checked=""`)
	}
	if st.toggleURL == nil {
		_, _ = w.WriteString(` disabled=""`)
	}
	_, _ = w.WriteString(`> `)
	return ast.WalkContinue, nil
}

func isTaskItem(n ast.Node) bool {
	fc := n.FirstChild()
	if fc == nil {
		return false
	}
	_, ok := fc.FirstChild().(*extast.TaskCheckBox)
	return ok
}

func taskIndexOf(n ast.Node) int {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() != ast.KindListItem {
			continue
		}
		v, ok := p.AttributeString(taskIndexAttr)
		if !ok {
			return -1
		}
		b, _ := v.([]byte)
		idx, err := strconv.Atoi(string(b))
		if err != nil {
			return -1
		}
		return idx
	}
	return -1
}

// ToggleTask flips the checkbox of the index-th task item (0-based,
// document order, the numbering Render assigns) and returns the new
// content. Text that only looks like a task, in code, math or HTML blocks,
// is never touched.
func ToggleTask(content string, index int) (string, error) {
	if index < 0 {
		return content, fmt.Errorf("%w: %d", ErrTaskNotFound, index)
	}
	src := []byte(content)
	pos := taskMarkOffset(src, index)
	if pos < 0 {
		return content, fmt.Errorf("%w: %d", ErrTaskNotFound, index)
	}
	mark := byte('x')
	if src[pos] != ' ' {
		mark = ' '
	}
	src[pos] = mark
	return string(src), nil
}

// taskMarkOffset returns the byte offset of the mark between the brackets
// of task index, or -1.
func taskMarkOffset(src []byte, index int) int {
	doc := scanner.Parser().Parse(text.NewReader(src))
	seen, pos := 0, -1
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindListItem || !isTaskItem(n) {
			return ast.WalkContinue, nil
		}
		if seen < index {
			seen++
			return ast.WalkContinue, nil
		}
		pos = checkBoxMark(n.FirstChild(), src)
		return ast.WalkStop, nil
	})
	return pos
}

// checkBoxMark locates "[ ]" at the start of the first line of block.
func checkBoxMark(block ast.Node, src []byte) int {
	lines := block.Lines()
	if lines.Len() == 0 {
		return -1
	}
	i := lines.At(0).Start
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	if i+2 >= len(src) || src[i] != '[' || src[i+2] != ']' {
		return -1
	}
	return i + 1
}

// TaskEditor applies task toggles to a document and reports every change.
type TaskEditor struct {
	Content  string
	OnChange func(content string)
}

func (e *TaskEditor) Toggle(index int) error {
	next, err := ToggleTask(e.Content, index)
	if err != nil {
		return err
	}
	e.Content = next
	if e.OnChange != nil {
		e.OnChange(next)
	}
	return nil
}
