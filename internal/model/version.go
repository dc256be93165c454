package model

// Version is the released version of strictjars.
const Version = "v0.3.0"
