// Package target builds one executable target incrementally.
//
// A build walks the states Scanning, PerFileCompile, LinkDecision, Linking and
// ends in Done or Failed. Per-file failures never stop sibling files; they only
// mark the target Failed once every file has been visited. Linking happens only
// when at least one source was recompiled.
package target
