// Package delivery sends replies and library documents back to chat channels.
//
// Replier is the outbound surface the command layer talks to. BridgeClient
// implements it against the WhatsApp bridge HTTP API. FileSender sits in
// front of SendDocument and refuses files that are missing, larger than the
// configured limit, or that resolve (after following symlinks) outside the
// library root.
package delivery
