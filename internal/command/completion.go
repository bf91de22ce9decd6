// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/apexsync/apexsync/internal/meta"
)

const bashCompletionScript = `# bash completion for apexsync
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_apexsync()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "classes compare login ping prune push retrieve rotate session status summary textdiff completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--color -c --output -o --sort -s --titles -t"
    local store="--root -r --extension -e --dir"
    local session="--instance_url -i --session_file --passphrase -p"
    local remote="$session --transport --api_version --retries"

    case "$cmd" in
        classes)
            local opts="$common $remote --refresh --filter -f"
            ;;
        compare)
            local opts="$common $store --all -a --pick --filter -f"
            ;;
        login)
            local opts="$session --encrypt"
            ;;
        ping)
            local opts="$common $remote"
            ;;
        prune|rotate|summary)
            local opts="$common $store"
            ;;
        push)
            local opts="$common $store --bucket -b --prefix --region --profile --endpoint"
            ;;
        retrieve)
            local opts="$common $store $remote --interval --max_attempts --timeout"
            ;;
        session)
            local opts="$common $session --clear"
            ;;
        status)
            local opts="$common $store --diff -d --ignore"
            ;;
        textdiff)
            if [[ "$cur" != -* ]]; then
                COMPREPLY=( $(compgen -f -- "$cur") )
                return 0
            fi
            local opts="$common"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json yaml" -- "$cur") )
            return 0
            ;;
        --transport)
            COMPREPLY=( $(compgen -W "rest soap" -- "$cur") )
            return 0
            ;;
        --root|-r)
            COMPREPLY=( $(compgen -o dirnames -- "$cur") )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _apexsync apexsync
`

const zshCompletionScript = `#compdef apexsync

_apexsync() {
  local -a cmds
  cmds=(
    'classes:list the org Apex classes'
    'compare:compare artifacts against their archived versions'
    'login:store an instance URL and access token'
    'ping:check the instance answers'
    'prune:keep only the newest archived versions'
    'push:mirror the archive tree to S3'
    'retrieve:retrieve every Apex class into the archive'
    'rotate:move current artifacts into previous'
    'session:show or clear the stored session'
    'status:show the last retrieve'
    'summary:count changed, new and unchanged artifacts'
    'textdiff:diff two files ignoring whitespace'
    'completion:generate shell completion script'
  )

  local -a common store session remote
  common=(
    '(-c --color)'{-c,--color}'[enable colored text]'
    '(-o --output)'{-o,--output}'[output format]:format:(text json yaml)'
    '(-s --sort)'{-s,--sort}'[sort columns]:columns'
    '(-t --titles)'{-t,--titles}'[show titles]'
  )
  store=(
    '(-r --root)'{-r,--root}'[archive root]:root:_directories'
    '(-e --extension)'{-e,--extension}'[artifact extension]:extension'
    '--dir[artifact directory]:dir'
  )
  session=(
    '(-i --instance_url)'{-i,--instance_url}'[instance URL]:url'
    '--session_file[session file]:file:_files'
    '(-p --passphrase)'{-p,--passphrase}'[session passphrase]:passphrase'
  )
  remote=(
    $session
    '--transport[remote transport]:transport:(rest soap)'
    '--api_version[Metadata API version]:version'
    '--retries[HTTP retries]:retries'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'apexsync commands' cmds
    return
  fi

  case $words[2] in
    classes)
      _arguments -C $common $remote '--refresh[ignore the cached catalog]' \
        '(-f --filter)'{-f,--filter}'[row filters]:filters'
      ;;
    compare)
      _arguments -C $common $store \
        '(-a --all)'{-a,--all}'[compare every artifact]' \
        '--pick[choose interactively]' \
        '(-f --filter)'{-f,--filter}'[row filters]:filters' \
        '::name'
      ;;
    login)
      _arguments -C $session '--encrypt[seal the session file]'
      ;;
    ping)
      _arguments -C $common $remote
      ;;
    prune|rotate|summary)
      _arguments -C $common $store
      ;;
    push)
      _arguments -C $common $store \
        '(-b --bucket)'{-b,--bucket}'[bucket]:bucket' \
        '--prefix[key prefix]:prefix' \
        '--region[region]:region' \
        '--profile[profile]:profile' \
        '--endpoint[endpoint URL]:url'
      ;;
    retrieve)
      _arguments -C $common $store $remote \
        '--interval[wait between polls]:duration' \
        '--max_attempts[poll limit]:count' \
        '--timeout[overall limit]:duration'
      ;;
    session)
      _arguments -C $common $session '--clear[remove the session file]'
      ;;
    status)
      _arguments -C $common $store \
        '(-d --diff)'{-d,--diff}'[diff the last two manifests]' \
        '--ignore[manifest keys to ignore]:keys'
      ;;
    textdiff)
      _arguments -C $common '1:old:_files' '2:new:_files'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys
# is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _apexsync apexsync
`

func completionCommandAction(ctx context.Context, cmd *cli.Command) error {
	w := stdout(cmd)
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			fmt.Fprint(w, zshCompletionScript)
		case strings.HasSuffix(sh, "bash"):
			fmt.Fprint(w, bashCompletionScript)
		default:
			fmt.Fprintln(os.Stderr, "usage: apexsync completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func completionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "apexsync completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: completionCommandAction,
	}
}
