package artifact

// Hooks for the external test package.
var ReleaseFilename = releaseFilename

// MinBinarySize mirrors the internal size threshold for tests.
const MinBinarySize = minBinarySize
