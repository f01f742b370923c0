package cli

import (
	"fmt"
)

// CompletionCmd generates shell completions
type CompletionCmd struct {
	Shell string `arg:"" enum:"bash,zsh,fish" help:"Shell type (bash, zsh, fish)"`
}

// Run executes the completion command
func (c *CompletionCmd) Run(globals *Globals) error {
	var script string
	switch c.Shell {
	case "bash":
		script = bashCompletion
	case "zsh":
		script = zshCompletion
	case "fish":
		script = fishCompletion
	default:
		return fmt.Errorf("unsupported shell: %s", c.Shell)
	}
	_, err := fmt.Fprint(globals.Stdout, script)
	return err
}

const bashCompletion = `# logview bash completion script
# Add to ~/.bashrc or ~/.bash_profile:
#   eval "$(logview completion bash)"

_logview_completions() {
    local cur prev words cword
    _init_completion || return

    local commands="serve tail scan schema config version completion"
    local global_flags="-f --format -q --quiet -v --verbose --config"
    local scan_flags="-P --procedure -d --direction -n --lines -t --from-tail --offset --skip -F --follow -s --search --positions --summary"

    case "${prev}" in
        logview)
            COMPREPLY=($(compgen -W "${commands}" -- "${cur}"))
            return
            ;;
        -f|--format)
            COMPREPLY=($(compgen -W "ndjson text" -- "${cur}"))
            return
            ;;
        -P|--procedure)
            COMPREPLY=($(compgen -W "read search searchSmart" -- "${cur}"))
            return
            ;;
        -d|--direction)
            COMPREPLY=($(compgen -W "forward backward" -- "${cur}"))
            return
            ;;
        --log-level)
            COMPREPLY=($(compgen -W "debug info warn error" -- "${cur}"))
            return
            ;;
        --root|--log-file|--config)
            _filedir
            return
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "${cur}"))
            return
            ;;
    esac

    case "${words[1]}" in
        serve)
            COMPREPLY=($(compgen -W "-l --addr --root -D --dir --workers --log-level --log-file ${global_flags}" -- "${cur}"))
            ;;
        tail)
            COMPREPLY=($(compgen -W "${scan_flags} -S --server --max-retries --stop-timeout --tmux --session ${global_flags}" -- "${cur}"))
            ;;
        scan)
            if [[ "${cur}" == -* ]]; then
                COMPREPLY=($(compgen -W "${scan_flags} -p --pattern -x --exclude -w --where ${global_flags}" -- "${cur}"))
            else
                _filedir
            fi
            ;;
        schema)
            COMPREPLY=($(compgen -W "-t --type ${global_flags}" -- "${cur}"))
            ;;
        config)
            COMPREPLY=($(compgen -W "show path generate ${global_flags}" -- "${cur}"))
            ;;
        *)
            COMPREPLY=($(compgen -W "${commands} ${global_flags}" -- "${cur}"))
            ;;
    esac
}

complete -F _logview_completions logview
`

const zshCompletion = `#compdef logview
# logview zsh completion script
# Add to ~/.zshrc:
#   eval "$(logview completion zsh)"

_logview() {
    local -a commands
    commands=(
        'serve:Serve log files to websocket clients'
        'tail:Stream a log file from a logview server'
        'scan:Scan a local log file'
        'schema:Output JSON Schema for logview output and frames'
        'config:Show or manage configuration'
        'version:Show version information'
        'completion:Generate shell completions'
    )

    local -a global_opts
    global_opts=(
        '-f[Output format]:format:(ndjson text)'
        '--format[Output format]:format:(ndjson text)'
        '-q[Suppress non-line output]'
        '--quiet[Suppress non-line output]'
        '-v[Show debug output]'
        '--verbose[Show debug output]'
        '--config[Config file]:file:_files'
    )

    local -a scan_opts
    scan_opts=(
        '-P[Scan procedure]:procedure:(read search searchSmart)'
        '--procedure[Scan procedure]:procedure:(read search searchSmart)'
        '-d[Reading direction]:direction:(forward backward)'
        '--direction[Reading direction]:direction:(forward backward)'
        '-n[Lines before end of request]:lines:'
        '--lines[Lines before end of request]:lines:'
        '-t[Measure offset from the end]'
        '--from-tail[Measure offset from the end]'
        '--offset[Byte offset]:bytes:'
        '--skip[Lines to skip]:lines:'
        '-F[Follow appended lines]'
        '--follow[Follow appended lines]'
        '*-s[Search term]:term:'
        '*--search[Search term]:term:'
        '--positions[Prefix byte positions]'
        '--summary[Print a summary]'
    )

    _arguments -C \
        $global_opts \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                serve)
                    _arguments \
                        '-l[Listen address]:addr:' \
                        '--addr[Listen address]:addr:' \
                        '--root[Mount root directory]:dir:_directories' \
                        '*-D[Explicit mount]:mount:' \
                        '*--dir[Explicit mount]:mount:' \
                        '--workers[Concurrent scans]:n:' \
                        '--log-level[Server log level]:level:(debug info warn error)' \
                        '--log-file[Rotating log file]:file:_files' \
                        $global_opts
                    ;;
                tail)
                    _arguments \
                        $scan_opts \
                        '-S[Server URL]:url:' \
                        '--server[Server URL]:url:' \
                        '--max-retries[Reconnect attempts]:n:' \
                        '--stop-timeout[Stop confirmation wait]:duration:' \
                        '--tmux[Stream into a tmux session]' \
                        '--session[tmux session name]:name:' \
                        '1:path:' \
                        $global_opts
                    ;;
                scan)
                    _arguments \
                        $scan_opts \
                        '*-p[Regex pattern]:pattern:' \
                        '*--pattern[Regex pattern]:pattern:' \
                        '*-x[Regex pattern to exclude]:pattern:' \
                        '*--exclude[Regex pattern to exclude]:pattern:' \
                        '*-w[Field filter]:clause:' \
                        '*--where[Field filter]:clause:' \
                        '1:file:_files' \
                        $global_opts
                    ;;
                config)
                    _arguments '1:action:(show path generate)'
                    ;;
                completion)
                    _arguments '1:shell:(bash zsh fish)'
                    ;;
            esac
            ;;
    esac
}

compdef _logview logview
`

const fishCompletion = `# logview fish completion script
# Add to ~/.config/fish/completions/logview.fish

# Disable file completion by default
complete -c logview -f

# Commands
complete -c logview -n "__fish_use_subcommand" -a "serve" -d "Serve log files to websocket clients"
complete -c logview -n "__fish_use_subcommand" -a "tail" -d "Stream a log file from a logview server"
complete -c logview -n "__fish_use_subcommand" -a "scan" -d "Scan a local log file"
complete -c logview -n "__fish_use_subcommand" -a "schema" -d "Output JSON Schema for logview output and frames"
complete -c logview -n "__fish_use_subcommand" -a "config" -d "Show or manage configuration"
complete -c logview -n "__fish_use_subcommand" -a "version" -d "Show version information"
complete -c logview -n "__fish_use_subcommand" -a "completion" -d "Generate shell completions"

# Global flags
complete -c logview -s f -l format -d "Output format" -xa "ndjson text"
complete -c logview -s q -l quiet -d "Suppress non-line output"
complete -c logview -s v -l verbose -d "Show debug output"
complete -c logview -l config -d "Config file" -r -F

# Serve command
complete -c logview -n "__fish_seen_subcommand_from serve" -s l -l addr -d "Listen address"
complete -c logview -n "__fish_seen_subcommand_from serve" -l root -d "Mount root directory" -r -a "(__fish_complete_directories)"
complete -c logview -n "__fish_seen_subcommand_from serve" -s D -l dir -d "Explicit mount name=directory"
complete -c logview -n "__fish_seen_subcommand_from serve" -l workers -d "Concurrent scans"
complete -c logview -n "__fish_seen_subcommand_from serve" -l log-level -d "Server log level" -xa "debug info warn error"
complete -c logview -n "__fish_seen_subcommand_from serve" -l log-file -d "Rotating log file" -r -F

# Scan flags shared by tail and scan
complete -c logview -n "__fish_seen_subcommand_from tail scan" -s P -l procedure -d "Scan procedure" -xa "read search searchSmart"
complete -c logview -n "__fish_seen_subcommand_from tail scan" -s d -l direction -d "Reading direction" -xa "forward backward"
complete -c logview -n "__fish_seen_subcommand_from tail scan" -s n -l lines -d "Lines before end of request"
complete -c logview -n "__fish_seen_subcommand_from tail scan" -s t -l from-tail -d "Measure offset from the end"
complete -c logview -n "__fish_seen_subcommand_from tail scan" -l offset -d "Byte offset"
complete -c logview -n "__fish_seen_subcommand_from tail scan" -l skip -d "Lines to skip"
complete -c logview -n "__fish_seen_subcommand_from tail scan" -s F -l follow -d "Follow appended lines"
complete -c logview -n "__fish_seen_subcommand_from tail scan" -s s -l search -d "Search term"
complete -c logview -n "__fish_seen_subcommand_from tail scan" -l positions -d "Prefix byte positions"
complete -c logview -n "__fish_seen_subcommand_from tail scan" -l summary -d "Print a summary"

# Tail command
complete -c logview -n "__fish_seen_subcommand_from tail" -s S -l server -d "Server websocket URL"
complete -c logview -n "__fish_seen_subcommand_from tail" -l max-retries -d "Reconnect attempts"
complete -c logview -n "__fish_seen_subcommand_from tail" -l stop-timeout -d "Stop confirmation wait"
complete -c logview -n "__fish_seen_subcommand_from tail" -l tmux -d "Stream into a tmux session"
complete -c logview -n "__fish_seen_subcommand_from tail" -l session -d "tmux session name"

# Scan command
complete -c logview -n "__fish_seen_subcommand_from scan" -s p -l pattern -d "Regex pattern"
complete -c logview -n "__fish_seen_subcommand_from scan" -s x -l exclude -d "Regex pattern to exclude"
complete -c logview -n "__fish_seen_subcommand_from scan" -s w -l where -d "Field filter"
complete -c logview -n "__fish_seen_subcommand_from scan" -F

# Config command
complete -c logview -n "__fish_seen_subcommand_from config" -a "show path generate"

# Completion command
complete -c logview -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
