package legend

// OlsonGlobalEcosystem is the Olson Global Ecosystem legend the GLCC
// rasters are delivered with. Code 0 marks the interrupted areas of the
// Goode grid.
var OlsonGlobalEcosystem = New("Olson Global Ecosystem Legend", map[int]string{
	0:      "INTERRUPTED AREAS (GLOBAL GOODES HOMOLOSINE PROJECTION)",
	1:      "URBAN",
	2:      "LOW SPARSE GRASSLAND",
	3:      "CONIFEROUS FOREST",
	4:      "DECIDUOUS CONIFER FOREST",
	5:      "DECIDUOUS BROADLEAF FOREST",
	6:      "EVERGREEN BROADLEAF FORESTS",
	7:      "TALL GRASSES AND SHRUBS",
	8:      "BARE DESERT",
	9:      "UPLAND TUNDRA",
	10:     "IRRIGATED GRASSLAND",
	11:     "SEMI DESERT",
	12:     "GLACIER ICE",
	13:     "WOODED WET SWAMP",
	14:     "INLAND WATER",
	15:     "SEA WATER",
	16:     "SHRUB EVERGREEN",
	17:     "SHRUB DECIDUOUS",
	18:     "MIXED FOREST AND FIELD",
	19:     "EVERGREEN FOREST AND FIELDS",
	20:     "COOL RAIN FOREST",
	21:     "CONIFER BOREAL FOREST",
	22:     "COOL CONIFER FOREST",
	23:     "COOL MIXED FOREST",
	24:     "MIXED FOREST",
	25:     "COOL BROADLEAF FOREST",
	26:     "DECIDUOUS BROADLEAF FOREST",
	27:     "CONIFER FOREST",
	28:     "MONTANE TROPICAL FORESTS",
	29:     "SEASONAL TROPICAL FOREST",
	30:     "COOL CROPS AND TOWNS",
	31:     "CROPS AND TOWN",
	32:     "DRY TROPICAL WOODS",
	33:     "TROPICAL RAINFOREST",
	34:     "TROPICAL DEGRADED FOREST",
	35:     "CORN AND BEANS CROPLAND",
	36:     "RICE PADDY AND FIELD",
	37:     "HOT IRRIGATED CROPLAND",
	38:     "COOL IRRIGATED CROPLAND",
	39:     "COLD IRRIGATED CROPLAND",
	40:     "COOL GRASSES AND SHRUBS",
	41:     "HOT AND MILD GRASSES AND SHRUBS",
	42:     "COLD GRASSLAND",
	43:     "SAVANNA (WOODS)",
	44:     "MIRE, BOG, FEN",
	45:     "MARSH WETLAND",
	46:     "MEDITERRANEAN SCRUB",
	47:     "DRY WOODY SCRUB",
	48:     "DRY EVERGREEN WOODS",
	49:     "VOLCANIC ROCK",
	50:     "SAND DESERT",
	51:     "SEMI DESERT SHRUBS",
	52:     "SEMI DESERT SAGE",
	53:     "BARREN TUNDRA",
	54:     "COOL SOUTHERN HEMISPHERE MIXED FORESTS",
	55:     "COOL FIELDS AND WOODS",
	56:     "FOREST AND FIELD",
	57:     "COOL FOREST AND FIELD",
	58:     "FIELDS AND WOODY SAVANNA",
	59:     "SUCCULENT AND THORN SCRUB",
	60:     "SMALL LEAF MIXED WOODS",
	61:     "DECIDUOUS AND MIXED BOREAL FOREST",
	62:     "NARROW CONIFERS",
	63:     "WOODED TUNDRA",
	64:     "HEATH SCRUB",
	65:     "COASTAL WETLAND - NW",
	66:     "COASTAL WETLAND - NE",
	67:     "COASTAL WETLAND - SE",
	68:     "COASTAL WETLAND - SW",
	69:     "POLAR AND ALPINE DESERT",
	70:     "GLACIER ROCK",
	71:     "SALT PLAYAS",
	72:     "MANGROVE",
	73:     "WATER AND ISLAND FRINGE",
	74:     "LAND, WATER, AND SHORE",
	75:     "LAND AND WATER, RIVERS",
	76:     "CROP AND WATER MIXTURES",
	77:     "SOUTHERN HEMISPHERE CONIFERS",
	78:     "SOUTHERN HEMISPHERE MIXED FOREST",
	79:     "WET SCLEROPHYLIC FOREST",
	80:     "COASTLINE FRINGE",
	81:     "BEACHES AND DUNES",
	82:     "SPARSE DUNES AND RIDGES",
	83:     "BARE COASTAL DUNES",
	84:     "RESIDUAL DUNES AND BEACHES",
	85:     "COMPOUND COASTLINES",
	86:     "ROCKY CLIFFS AND SLOPES",
	87:     "SANDY GRASSLAND AND SHRUBS",
	88:     "BAMBOO",
	89:     "MOIST EUCALYPTUS",
	90:     "RAIN GREEN TROPICAL FOREST",
	91:     "WOODY SAVANNA",
	92:     "BROADLEAF CROPS",
	93:     "GRASS CROPS",
	94:     "CROPS, GRASS, SHRUBS",
	95:     "EVERGREEN TREE CROP",
	96:     "DECIDUOUS TREE CROP",
	NoData: "NO DATA",
})
