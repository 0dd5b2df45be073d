package render

// HalfBlock is drawn with the upper pixel as foreground and the lower one as background,
// packing two frame rows into one terminal row.
const HalfBlock = '▀'
