// Package command implements the PowerShell command invocation model:
// one command's text, scope/script flags, positional and named
// parameters, and its stream-redirection ("merge") matrix, plus the
// CLIXML shape that matrix serializes to under version gating.
package command
