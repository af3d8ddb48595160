package cli

import (
	"fmt"
	"io"
	"strings"
)

// FlagCompletion describes a CLI flag for shell completion. Every generator
// reads flagRegistry, so a new flag only needs a new entry there.
type FlagCompletion struct {
	Long      string   // long name without "--"
	Short     string   // short name without "-"
	Help      string   // description
	Values    []string // suggested values, nil for booleans or free values
	ValueName string   // value label, empty for booleans
	IsFile    bool     // completes file paths
}

var flagRegistry = []FlagCompletion{
	{Long: "help", Short: "h", Help: "Show help message"},
	{Long: "version", Short: "V", Help: "Show version information"},
	{Long: "request", Short: "r", Help: "Calibration request file", IsFile: true, ValueName: "file"},
	{Long: "data", Help: "Historical series file", IsFile: true, ValueName: "file"},
	{Long: "rates", Help: "Comma-separated growth rates", Values: []string{"0.05,0.08,0.1,0.2"}, ValueName: "rates"},
	{Long: "year-end", Help: "Last projected year", Values: []string{"2100", "2150"}, ValueName: "year"},
	{Long: "reference-year", Help: "Historical year to compare against", ValueName: "year"},
	{Long: "output", Short: "o", Help: "Result document file", IsFile: true, ValueName: "file"},
	{Long: "db", Help: "SQLite database file", IsFile: true, ValueName: "file"},
	{Long: "json", Help: "Print the result document as JSON"},
	{Long: "timeout", Help: "Maximum run time", Values: []string{"30s", "1m", "5m", "10m"}, ValueName: "duration"},
	{Long: "concurrency", Help: "Scenarios evaluated in parallel", ValueName: "number"},
	{Long: "verbose", Short: "v", Help: "Print every projected year"},
	{Long: "quiet", Short: "q", Help: "Quiet mode for scripts"},
	{Long: "no-color", Help: "Disable colored output"},
	{Long: "tui", Help: "Browse results interactively"},
	{Long: "log-level", Help: "Log level", Values: []string{"debug", "info", "warn", "error"}, ValueName: "level"},
	{Long: "serve", Help: "Run the HTTP service"},
	{Long: "addr", Help: "Listen address", Values: []string{":8080"}, ValueName: "address"},
	{Long: "env-file", Help: "Environment file", IsFile: true, ValueName: "file"},
	{Long: "completion", Help: "Generate completion script", Values: []string{"bash", "zsh", "fish", "powershell"}, ValueName: "shell"},
}

// GenerateCompletion writes a completion script for shell ("bash", "zsh",
// "fish" or "powershell").
func GenerateCompletion(out io.Writer, shell string) error {
	var script string
	switch shell {
	case "bash":
		script = bashCompletion()
	case "zsh":
		script = zshCompletion()
	case "fish":
		script = fishCompletion()
	case "powershell", "ps":
		script = powerShellCompletion()
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish, powershell)", shell)
	}
	if _, err := fmt.Fprint(out, script); err != nil {
		return fmt.Errorf("completion %s generation failed: %w", shell, err)
	}
	return nil
}

// spellings returns the dashed forms of f, long first.
func spellings(f FlagCompletion) []string {
	var s []string
	if f.Long != "" {
		s = append(s, "--"+f.Long)
	}
	if f.Short != "" {
		s = append(s, "-"+f.Short)
	}
	return s
}

func bashCompletion() string {
	var opts, files []string
	var cases strings.Builder
	for _, f := range flagRegistry {
		opts = append(opts, spellings(f)...)
		switch {
		case f.IsFile:
			files = append(files, spellings(f)...)
		case len(f.Values) > 0:
			fmt.Fprintf(&cases, "        %s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n",
				strings.Join(spellings(f), "|"), strings.Join(f.Values, " "))
		}
	}
	fmt.Fprintf(&cases, "        %s)\n            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n            return 0\n            ;;\n",
		strings.Join(files, "|"))

	return fmt.Sprintf(`# Bash completion script for storagecast
# Add this to your ~/.bashrc or ~/.bash_completion

_storagecast_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    opts="%s"

    case "${prev}" in
%s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _storagecast_completions storagecast
`, strings.Join(opts, " "), cases.String())
}

// zshArgEntry formats f as a zsh _arguments entry.
func zshArgEntry(f FlagCompletion) string {
	suffix := ""
	switch {
	case f.IsFile:
		suffix = fmt.Sprintf(":%s:_files", f.ValueName)
	case len(f.Values) > 0:
		suffix = fmt.Sprintf(":%s:(%s)", f.ValueName, strings.Join(f.Values, " "))
	case f.ValueName != "":
		suffix = fmt.Sprintf(":%s:", f.ValueName)
	}
	if f.Long != "" && f.Short != "" {
		return fmt.Sprintf("        '(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, f.Help, suffix)
	}
	return fmt.Sprintf("        '--%s[%s]%s'", f.Long, f.Help, suffix)
}

func zshCompletion() string {
	args := make([]string, len(flagRegistry))
	for i, f := range flagRegistry {
		args[i] = zshArgEntry(f)
	}
	return fmt.Sprintf(`#compdef storagecast

# Zsh completion script for storagecast
# Place this file in a directory of $fpath

_storagecast() {
    _arguments -s \
%s
}

_storagecast "$@"
`, strings.Join(args, " \\\n"))
}

// fishCompleteLine formats f as a fish complete command.
func fishCompleteLine(f FlagCompletion) string {
	parts := []string{"complete -c storagecast"}
	if f.Short != "" {
		parts = append(parts, "-s "+f.Short)
	}
	if f.Long != "" {
		parts = append(parts, "-l "+f.Long)
	}
	parts = append(parts, fmt.Sprintf("-d '%s'", f.Help))
	switch {
	case f.IsFile:
		parts = append(parts, "-rF")
	case len(f.Values) > 0:
		parts = append(parts, fmt.Sprintf("-xa '%s'", strings.Join(f.Values, " ")))
	case f.ValueName != "":
		parts = append(parts, "-x")
	}
	return strings.Join(parts, " ")
}

func fishCompletion() string {
	lines := []string{
		"# Fish completion script for storagecast",
		"# Add this to ~/.config/fish/completions/storagecast.fish",
		"",
		"complete -c storagecast -f",
	}
	for _, f := range flagRegistry {
		lines = append(lines, fishCompleteLine(f))
	}
	return strings.Join(lines, "\n") + "\n"
}

func powerShellCompletion() string {
	var options, switches []string
	for _, f := range flagRegistry {
		for _, s := range spellings(f) {
			options = append(options, fmt.Sprintf("        @{Name = '%s'; Description = '%s' }", s, f.Help))
		}
		if len(f.Values) == 0 || f.IsFile {
			continue
		}
		quoted := make([]string, len(f.Values))
		for i, v := range f.Values {
			quoted[i] = "'" + v + "'"
		}
		switches = append(switches, fmt.Sprintf(`        '--%s' {
            @(%s) | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
            }
            return
        }`, f.Long, strings.Join(quoted, ", ")))
	}
	return fmt.Sprintf(`# PowerShell completion script for storagecast
# Add this to your $PROFILE

Register-ArgumentCompleter -Native -CommandName storagecast -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $options = @(
%s
    )

    $previous = $commandAst.CommandElements[-2].ToString()
    switch ($previous) {
%s
    }

    $options | Where-Object { $_.Name -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_.Name, $_.Name, 'ParameterName', $_.Description)
    }
}
`, strings.Join(options, ",\n"), strings.Join(switches, "\n"))
}
