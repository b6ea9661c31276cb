package main

// _version is the version of fetchcode.
// Release builds override it with -ldflags.
var _version = "dev"
