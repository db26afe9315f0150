package utils

var ArtifactsDirFor = artifactsDirFor
