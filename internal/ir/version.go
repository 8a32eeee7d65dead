package ir

// Version is the weavebridge release reported by the CLI.
const Version = "0.1.0"
