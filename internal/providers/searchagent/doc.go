// Package searchagent resolves scores without an API key. It runs a
// site-restricted web search for the Rotten Tomatoes movie page, fetches the
// page, and reads the scores from its JSON-LD block or score board markup.
package searchagent
