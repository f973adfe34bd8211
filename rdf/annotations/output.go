package annotations

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// OutputFormatter formats events for human-readable display.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
}

// NewOutputFormatter creates a formatter with color support detection.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stdout
	}

	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f)
	}

	return &OutputFormatter{
		useColor: useColor,
		writer:   w,
	}
}

// Handle prints events as they occur.
func (f *OutputFormatter) Handle(event Event) {
	output := f.Format(event)
	if output != "" {
		fmt.Fprintln(f.writer, output)
	}
}

// Format converts an event to a human-readable string.
func (f *OutputFormatter) Format(event Event) string {
	latency := f.formatLatency(event.Latency)

	switch event.Name {
	case EvaluationBegin:
		return fmt.Sprintf("%s %s Evaluating:\n%s",
			latency,
			f.colorize("===", color.FgYellow),
			strings.TrimRight(fmt.Sprint(event.Data["expr"]), "\n"))

	case EvaluationComplete:
		if success, _ := event.Data["success"].(bool); !success {
			return fmt.Sprintf("%s %s Evaluation failed: %v",
				latency,
				f.colorize("✗", color.FgRed),
				event.Data["error"])
		}
		return fmt.Sprintf("%s %s Evaluation done with %s.",
			latency,
			f.colorize("===", color.FgGreen),
			f.colorizeCount("solutions", intData(event, "solutions")))

	case PatternScan:
		pattern := fmt.Sprint(event.Data["pattern"])
		if f.useColor {
			pattern = color.CyanString(pattern)
		}
		return fmt.Sprintf("%s Scan(%s) → %s",
			latency,
			pattern,
			f.colorizeCount("statements", intData(event, "statements")))

	case JoinNested, JoinParallel:
		kind := "NestedLoopJoin"
		if event.Name == JoinParallel {
			kind = "ParallelJoin"
		}
		if f.useColor {
			kind = color.BlueString(kind)
		}
		return fmt.Sprintf("%s %s(%v) → %s",
			latency,
			kind,
			event.Data["join"],
			f.colorizeCount("solutions", intData(event, "solutions")))

	case LeftJoinBadlyDesigned:
		return fmt.Sprintf("%s %s Badly designed left join, problem variables %v",
			latency,
			f.colorize("⚠️", color.FgYellow),
			event.Data["problem.vars"])

	case OrderSpilled:
		return fmt.Sprintf("%s Order spilled %s to %v",
			latency,
			f.colorizeCount("entries", intData(event, "entries")),
			event.Data["dir"])

	case DescribeExpanded:
		return fmt.Sprintf("%s Describe %v → %s",
			latency,
			event.Data["value"],
			f.colorizeCount("statements", intData(event, "statements")))

	case ParallelCloseGraceLapse:
		return fmt.Sprintf("%s %s Background evaluation still running after %v",
			latency,
			f.colorize("⚠️", color.FgYellow),
			event.Data["grace"])

	case ErrorEvaluation:
		return fmt.Sprintf("%s %s %v failed: %v",
			latency,
			f.colorize("✗", color.FgRed),
			event.Data["op"],
			event.Data["error"])

	default:
		return fmt.Sprintf("%s %s %v", latency, event.Name, event.Data)
	}
}

// formatLatency formats a duration as [XXXms] or [XXXµs] with color coding.
func (f *OutputFormatter) formatLatency(d time.Duration) string {
	if d < time.Millisecond {
		s := fmt.Sprintf("[%dµs]", d.Microseconds())
		if !f.useColor {
			return s
		}
		return color.GreenString(s)
	}

	ms := float64(d.Microseconds()) / 1000.0
	s := fmt.Sprintf("[%.1fms]", ms)

	if !f.useColor {
		return s
	}

	switch {
	case ms < 50:
		return color.GreenString(s)
	case ms < 200:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

// colorizeCount formats a count with a label, using color based on the label type.
func (f *OutputFormatter) colorizeCount(label string, count int) string {
	text := fmt.Sprintf("%d %s", count, label)

	if !f.useColor {
		return text
	}

	switch {
	case strings.HasSuffix(label, "solutions"):
		return color.MagentaString(text)
	case label == "statements":
		return color.BlueString(text)
	default:
		return color.CyanString(text)
	}
}

// colorize applies color if enabled.
func (f *OutputFormatter) colorize(text string, attrs ...color.Attribute) string {
	if !f.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

func intData(event Event, key string) int {
	switch v := event.Data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// isTerminal defers to fatih/color's own detection, which only covers the
// standard streams.
func isTerminal(f *os.File) bool {
	return !color.NoColor && (f == os.Stdout || f == os.Stderr)
}
