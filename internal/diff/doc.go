// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package diff compares artifact sources. Two independent modes are offered:
// Lines, a minimal line diff over exact line text, and Text, a positional
// comparison of two raw strings that ignores whitespace-only differences.
package diff
