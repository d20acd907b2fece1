// Package provider drives a single turn's reply generation against a
// streaming chat API and feeds every emitted fragment straight into a
// thread's Poster, rather than building a full Provider/Response
// abstraction around non-streaming tool-calling completions.
package provider
