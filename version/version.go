package version

// Version is overridden at build time with -ldflags "-X".
var Version = "0.1.0"
