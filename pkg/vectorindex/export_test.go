package vectorindex

var EmbedAll = embedAll
