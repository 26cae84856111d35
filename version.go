package lodge

// Version is the current release of the module.
const Version = "0.4.0"
