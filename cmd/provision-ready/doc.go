// Package main (cmd/provision-ready) reports the instance as ready to the
// platform wireserver.
//
// It performs a single provisioning handshake and exits: GET the goal state from
// {wireserver}/machine?comp=goalstate, extract the incarnation, container id and
// first role instance id, and POST a health report with State Ready to
// {wireserver}/machine?comp=health. Exit status is 0 once the report has been
// accepted and 1 otherwise.
//
// Example usage:
//
//	provision-ready --log-json
//
// Against a local fake wireserver:
//
//	fake-wireserver --listen-addr=127.0.0.1:8080 &
//	provision-ready --wireserver-addr=http://127.0.0.1:8080 --log-debug
package main
